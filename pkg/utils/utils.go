// Package utils provides HTTP call helpers and the in-memory rate limiter
// used by the gateway.
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// PostJSON sends a POST request with a JSON-encoded body and an optional
// bearer credential. The caller owns the returned response and must close
// its body.
func PostJSON(ctx context.Context, client *http.Client, url, bearer string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return client.Do(req)
}

// DecodeJSONResponse decodes a JSON response body into dst and closes the body.
func DecodeJSONResponse(resp *http.Response, dst any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(dst)
}
