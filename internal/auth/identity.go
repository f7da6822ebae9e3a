package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// UserProfile is the subset of an identity-management user record the
// gateway reads and writes. PublicMetadata holds the plan-key fields synced
// by the key-provisioning pipeline.
type UserProfile struct {
	ID             string         `json:"id"`
	PublicMetadata map[string]any `json:"public_metadata"`
}

// IdentityClient talks to the identity-management service's user API.
type IdentityClient struct {
	client    *http.Client
	baseURL   string
	secretKey string
}

// NewIdentityClient creates a client authenticated with the service secret key.
func NewIdentityClient(baseURL, secretKey string) *IdentityClient {
	return &IdentityClient{
		client:    &http.Client{Timeout: 10 * time.Second},
		baseURL:   baseURL,
		secretKey: secretKey,
	}
}

// GetUser fetches a user's current profile.
func (c *IdentityClient) GetUser(ctx context.Context, userID string) (*UserProfile, error) {
	url := fmt.Sprintf("%s/v1/users/%s", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	var profile UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

// UpdateUserMetadata replaces a user's public metadata through the identity
// service's metadata endpoint and returns the updated profile.
func (c *IdentityClient) UpdateUserMetadata(ctx context.Context, userID string, publicMetadata map[string]any) (*UserProfile, error) {
	url := fmt.Sprintf("%s/v1/users/%s/metadata", c.baseURL, userID)

	payload := struct {
		PublicMetadata map[string]any `json:"public_metadata"`
	}{PublicMetadata: publicMetadata}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	var profile UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}
