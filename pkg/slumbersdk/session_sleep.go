package slumbersdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// CreateSleepEntry records a sleep entry for the session's account.
// Requires the sleep:write scope.
func (s *Session) CreateSleepEntry(ctx context.Context, req CreateSleepEntryRequest) (*SleepEntry, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/sleep", bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	}, "sleep:write")
	if err != nil {
		return nil, err
	}

	var entry SleepEntry
	if err := decodeJSON(resp, &entry, http.StatusCreated); err != nil {
		return nil, err
	}

	return &entry, nil
}

// ListSleepEntries returns the session account's sleep entries, newest first.
// Requires the sleep:read scope.
func (s *Session) ListSleepEntries(ctx context.Context) (*ListSleepEntriesResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/sleep", nil, nil, "sleep:read")
	if err != nil {
		return nil, err
	}

	var list ListSleepEntriesResponse
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}

	return &list, nil
}

// DeleteSleepEntry removes a single sleep entry by ID. Entries owned by other
// accounts are indistinguishable from missing ones.
// Requires the sleep:write scope.
func (s *Session) DeleteSleepEntry(ctx context.Context, id string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/sleep/"+url.PathEscape(id), nil, nil, "sleep:write")
	if err != nil {
		return err
	}

	return checkStatus(resp, http.StatusNoContent)
}

// GetSleepEntry fetches a single sleep entry by ID. Entries owned by other
// accounts are indistinguishable from missing ones.
// Requires the sleep:read scope.
func (s *Session) GetSleepEntry(ctx context.Context, id string) (*SleepEntry, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/sleep/"+url.PathEscape(id), nil, nil, "sleep:read")
	if err != nil {
		return nil, err
	}

	var entry SleepEntry
	if err := decodeJSON(resp, &entry, http.StatusOK); err != nil {
		return nil, err
	}

	return &entry, nil
}
