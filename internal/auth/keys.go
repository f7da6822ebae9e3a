// Package auth implements credential checking for the gateway: plan-key
// validation against the external key-verification service and demotion of
// expired pro-plan entitlements in the identity-management service.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pdfchat-gateway/pkg/utils"
)

// ErrorCode classifies why a key failed validation.
type ErrorCode string

const (
	// CodeUnauthorized means the key is invalid, expired, revoked, or owned
	// by a different user. This is the only code that may trigger demotion.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// CodeUnknown means the verification service misbehaved and nothing can
	// be concluded about the key. Callers must treat this as a hard failure,
	// never as proof of expiry.
	CodeUnknown ErrorCode = "UNKNOWN_ERROR"
)

// KeyResult is the outcome of validating one plan key. Validation never
// returns a raw transport error; every failure is folded into this result.
type KeyResult struct {
	Valid  bool
	Code   ErrorCode
	Detail string
}

// verifyKeyPath is the key-verification service endpoint.
const verifyKeyPath = "/v1/keys.verifyKey"

// KeyValidator validates plan keys against the key-verification service.
// Retries against transient failures are an explicit, bounded configuration
// rather than a hidden client default.
type KeyValidator struct {
	client   *http.Client
	baseURL  string
	token    string
	apiID    string
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

// NewKeyValidator creates a validator for the given key namespace.
func NewKeyValidator(baseURL, token, apiID string, attempts int, backoff time.Duration, logger *zap.Logger) *KeyValidator {
	if attempts < 1 {
		attempts = 1
	}
	return &KeyValidator{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  baseURL,
		token:    token,
		apiID:    apiID,
		attempts: attempts,
		backoff:  backoff,
		logger:   logger,
	}
}

type verifyKeyRequest struct {
	APIID string `json:"apiId"`
	Key   string `json:"key"`
}

type verifyKeyResponse struct {
	Valid   bool   `json:"valid"`
	OwnerID string `json:"ownerId"`
}

// Validate checks a candidate key and its registered owner against ownerID.
// It fails closed: transport failures that survive the retry budget report
// the key as unauthorized, and a malformed service response reports it as
// unknown. Neither outcome is ever surfaced as a Go error.
func (v *KeyValidator) Validate(ctx context.Context, key, ownerID string) KeyResult {
	resp, err := v.verifyWithRetry(ctx, key)
	if err != nil {
		v.logger.Warn("key verification unreachable", zap.Error(err))
		return KeyResult{Code: CodeUnauthorized, Detail: "could not verify key"}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		v.logger.Error("key verification service error", zap.Int("status", resp.StatusCode))
		return KeyResult{Code: CodeUnknown, Detail: fmt.Sprintf("verification service returned status %d", resp.StatusCode)}
	}

	var keyData verifyKeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&keyData); err != nil {
		resp.Body.Close()
		v.logger.Error("malformed key verification response", zap.Error(err))
		return KeyResult{Code: CodeUnknown, Detail: "malformed verification response"}
	}
	resp.Body.Close()

	if !keyData.Valid || keyData.OwnerID != ownerID {
		return KeyResult{Code: CodeUnauthorized, Detail: "key is not valid"}
	}

	return KeyResult{Valid: true}
}

// verifyWithRetry issues the verification call, retrying transport failures
// and 5xx responses up to the configured attempt budget.
func (v *KeyValidator) verifyWithRetry(ctx context.Context, key string) (*http.Response, error) {
	payload := verifyKeyRequest{APIID: v.apiID, Key: key}

	var lastErr error
	for attempt := 0; attempt < v.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(v.backoff):
			}
		}

		resp, err := utils.PostJSON(ctx, v.client, v.baseURL+verifyKeyPath, v.token, payload)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			lastErr = fmt.Errorf("verification service returned status %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("key verification failed after %d attempts: %w", v.attempts, lastErr)
}
