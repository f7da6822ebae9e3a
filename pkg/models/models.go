// Package models contains the request and message types shared between the
// gateway handlers, the backend client, and the completion relay.
package models

// ChatRequest is the JSON body the frontend posts to the gateway.
//
// SessionID and Token together prove the caller holds a live session with the
// auth provider; the gateway forwards them to the backend, which performs the
// actual session verification. FreePlanKey and ProPlanKey are API keys issued
// by the key-verification service; at least one must be present.
type ChatRequest struct {
	Message     string `json:"message"`
	FileID      string `json:"fileId"`
	SessionID   string `json:"sessionId"`
	Token       string `json:"token"`
	UserID      string `json:"userId"`
	FreePlanKey string `json:"freePlanKey,omitempty"`
	ProPlanKey  string `json:"proPlanKey,omitempty"`
}

// PromptMessage is a single role-tagged message in a prompt.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptBundle is the ordered prompt (system, prior turns, retrieved context,
// user input) materialized by the backend. The gateway passes it to the
// completion API unmodified.
type PromptBundle []PromptMessage
