package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"pdfchat-gateway/pkg/models"
)

func TestFetchPromptSendsSharedSecretAndPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/message", r.URL.Path)
		require.Equal(t, "Bearer shhh", r.Header.Get("Authorization"))

		var body messagePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, messagePayload{
			Message: "hi", FileID: "f1", SessionID: "s1", Token: "t1",
		}, body)

		json.NewEncoder(w).Encode(promptResponse{Messages: models.PromptBundle{
			{Role: "system", Content: "use the context"},
			{Role: "user", Content: "hi"},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "shhh")

	prompt, err := c.FetchPrompt(context.Background(), "hi", "f1", "s1", "t1")
	require.NoError(t, err)
	require.Len(t, prompt, 2)
	require.Equal(t, "system", prompt[0].Role)
}

func TestFetchPromptReportsBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "shhh")

	_, err := c.FetchPrompt(context.Background(), "hi", "f1", "s1", "t1")
	require.ErrorIs(t, err, ErrPromptFetch)
}

func TestFetchPromptReportsMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "shhh")

	_, err := c.FetchPrompt(context.Background(), "hi", "f1", "s1", "t1")
	require.ErrorIs(t, err, ErrPromptFetch)
}

func TestPostCompletionSendsAccumulatedText(t *testing.T) {
	var body messagePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/post-stream", r.URL.Path)
		require.Equal(t, "Bearer shhh", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "shhh")

	require.NoError(t, c.PostCompletion(context.Background(), "full reply", "f1", "s1", "t1"))
	require.Equal(t, "full reply", body.Message)
	require.Equal(t, "f1", body.FileID)
}

func TestPostCompletionReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "shhh")
	require.Error(t, c.PostCompletion(context.Background(), "full reply", "f1", "s1", "t1"))
}
