// Package backend implements the client for the internal backend that builds
// prompts and persists completed assistant messages. The gateway authenticates
// to it with a static shared-secret bearer credential, not the end user's own
// session.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pdfchat-gateway/pkg/models"
	"pdfchat-gateway/pkg/utils"
)

const (
	// messagePath materializes the full prompt for a document and session
	messagePath = "/api/message"
	// postStreamPath persists the completed assistant message
	postStreamPath = "/api/post-stream"
)

// ErrPromptFetch is returned when the backend cannot supply a prompt.
var ErrPromptFetch = errors.New("prompt fetch failed")

// Client talks to the internal backend. Calls are single-attempt; if the
// backend wants retries it performs them itself.
type Client struct {
	client  *http.Client
	baseURL string
	secret  string
}

// NewClient creates a backend client using the shared worker secret.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		secret:  secret,
	}
}

// messagePayload is the body for both backend endpoints. For FetchPrompt the
// message is the user's input; for PostCompletion it is the full assistant
// reply.
type messagePayload struct {
	Message   string `json:"message"`
	FileID    string `json:"fileId"`
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

type promptResponse struct {
	Messages models.PromptBundle `json:"messages"`
}

// FetchPrompt asks the backend to assemble the prompt for the given document
// and session. The backend verifies the session, records the user message,
// and returns the system prompt, prior turns, and retrieved context together
// with the user input.
func (c *Client) FetchPrompt(ctx context.Context, message, fileID, sessionID, token string) (models.PromptBundle, error) {
	payload := messagePayload{Message: message, FileID: fileID, SessionID: sessionID, Token: token}

	resp, err := utils.PostJSON(ctx, c.client, c.baseURL+messagePath, c.secret, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPromptFetch, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: backend returned status %d", ErrPromptFetch, resp.StatusCode)
	}

	var prompt promptResponse
	if err := utils.DecodeJSONResponse(resp, &prompt); err != nil {
		return nil, fmt.Errorf("%w: decoding prompt: %v", ErrPromptFetch, err)
	}

	return prompt.Messages, nil
}

// PostCompletion sends the fully accumulated assistant message back to the
// backend for persistence once a completion stream has drained.
func (c *Client) PostCompletion(ctx context.Context, completed, fileID, sessionID, token string) error {
	payload := messagePayload{Message: completed, FileID: fileID, SessionID: sessionID, Token: token}

	resp, err := utils.PostJSON(ctx, c.client, c.baseURL+postStreamPath, c.secret, payload)
	if err != nil {
		return fmt.Errorf("posting completion: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("posting completion: backend returned status %d", resp.StatusCode)
	}

	return nil
}
