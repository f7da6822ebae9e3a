// Package relay issues the streaming completion request and tees the byte
// stream: every chunk is forwarded to the client in arrival order while the
// decoded text is accumulated for post-stream persistence.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pdfchat-gateway/pkg/models"
)

const (
	// DefaultCompletionURL is the chat-completion endpoint of the LLM API.
	DefaultCompletionURL = "https://api.openai.com/v1/chat/completions"

	// completionTemperature pins the model to deterministic answers grounded
	// in the retrieved document context.
	completionTemperature = 0
)

// ErrClientGone is returned by Forward when the downstream client disconnects
// mid-stream. The relay stops reading upstream as soon as this is detected.
var ErrClientGone = errors.New("client disconnected")

// Relay performs streaming chat-completion calls.
type Relay struct {
	client *http.Client
	url    string
	apiKey string
	model  string
	logger *zap.Logger
}

// New creates a relay for the given completion endpoint. The HTTP client has
// no overall timeout: completion streams are long-lived and bounded by the
// request context, so only dial and response-header waits are capped.
func New(url, apiKey, model string, logger *zap.Logger) *Relay {
	return &Relay{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ResponseHeaderTimeout: 60 * time.Second,
			},
		},
		url:    url,
		apiKey: apiKey,
		model:  model,
		logger: logger,
	}
}

// completionRequest is the streaming chat-completion payload.
type completionRequest struct {
	Model       string              `json:"model"`
	Temperature float64             `json:"temperature"`
	Stream      bool                `json:"stream"`
	Messages    models.PromptBundle `json:"messages"`
}

// Open issues the streaming completion request and returns the upstream
// response with its body still open. A non-200 status is not an error here;
// the caller decides whether to relay it.
func (r *Relay) Open(ctx context.Context, prompt models.PromptBundle) (*http.Response, error) {
	payload := completionRequest{
		Model:       r.model,
		Temperature: completionTemperature,
		Stream:      true,
		Messages:    prompt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	return resp, nil
}

// Forward relays the upstream stream to w chunk by chunk and returns the
// accumulated reply text once the upstream signals end-of-data.
//
// Per chunk the order is fixed: write to the client, flush, then feed the
// accumulator. Chunks are never reordered or held back. If the client write
// fails the relay returns ErrClientGone without draining the rest of the
// upstream stream.
func (r *Relay) Forward(w io.Writer, upstream io.Reader) (string, error) {
	flusher, _ := w.(http.Flusher)
	acc := &chunkAccumulator{}
	buf := make([]byte, 4096)

	for {
		n, err := upstream.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if _, werr := w.Write(chunk); werr != nil {
				return "", fmt.Errorf("%w: %v", ErrClientGone, werr)
			}
			if flusher != nil {
				flusher.Flush()
			}
			acc.Write(chunk)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading completion stream: %w", err)
		}
	}

	return acc.Text(), nil
}
