package slumbersdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// CreateIdentity creates or retrieves the anonymous account bound to the
// given device fingerprint. The call is idempotent: the same fingerprint
// always maps to the same account.
func (c *SDKClient) CreateIdentity(ctx context.Context, deviceFingerprint string) (*IdentityResponse, error) {
	body, err := json.Marshal(map[string]string{
		"device_fingerprint": deviceFingerprint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/identity", bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}

	var identity IdentityResponse
	if err := decodeJSON(resp, &identity, http.StatusOK); err != nil {
		return nil, err
	}

	return &identity, nil
}
