package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pdfchat-gateway/pkg/models"
)

const sampleStream = "data: {\"choices\":[{\"delta\":{\"content\":\"The \"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"answer.\"}}]}\n\n" +
	"data: [DONE]\n\n"

func TestOpenSendsStreamingCompletionRequest(t *testing.T) {
	var got completionRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, sampleStream)
	}))
	defer upstream.Close()

	r := New(upstream.URL, "sk-test", "gpt-3.5-turbo", zap.NewNop())

	prompt := models.PromptBundle{
		{Role: "system", Content: "use the context"},
		{Role: "user", Content: "what is the answer?"},
	}

	resp, err := r.Open(context.Background(), prompt)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, got.Stream)
	require.Equal(t, "gpt-3.5-turbo", got.Model)
	require.Zero(t, got.Temperature)
	require.Equal(t, prompt, got.Messages)
}

func TestOpenReturnsNon200WithoutError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	r := New(upstream.URL, "sk-test", "gpt-3.5-turbo", zap.NewNop())

	resp, err := r.Open(context.Background(), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestForwardTeesAndAccumulates(t *testing.T) {
	r := New("http://unused", "sk-test", "gpt-3.5-turbo", zap.NewNop())

	var client bytes.Buffer
	text, err := r.Forward(&client, strings.NewReader(sampleStream))
	require.NoError(t, err)

	// The client sees the raw upstream bytes untouched.
	require.Equal(t, sampleStream, client.String())
	// The accumulated text is exactly the concatenated deltas.
	require.Equal(t, "The answer.", text)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestForwardStopsWhenClientGone(t *testing.T) {
	r := New("http://unused", "sk-test", "gpt-3.5-turbo", zap.NewNop())

	upstream := &countingReader{Reader: strings.NewReader(sampleStream)}
	_, err := r.Forward(failingWriter{}, upstream)
	require.ErrorIs(t, err, ErrClientGone)

	// The relay must not drain the rest of the upstream stream.
	require.Less(t, upstream.reads, 3)
}

type countingReader struct {
	io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.Reader.Read(p)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestForwardSurfacesUpstreamReadError(t *testing.T) {
	r := New("http://unused", "sk-test", "gpt-3.5-turbo", zap.NewNop())

	var client bytes.Buffer
	_, err := r.Forward(&client, errReader{})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrClientGone)
}
