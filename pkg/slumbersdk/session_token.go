package slumbersdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Introspect asks the service to introspect a token per RFC 7662. The call is
// authenticated with the session's access token.
func (s *Session) Introspect(ctx context.Context, token string) (*IntrospectionResponse, error) {
	data := url.Values{
		"token": {token},
	}

	resp, err := s.doAuthRequest(
		ctx,
		http.MethodPost,
		"/v1/introspect",
		strings.NewReader(data.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
	)
	if err != nil {
		return nil, err
	}

	var introspection IntrospectionResponse
	if err := decodeJSON(resp, &introspection, http.StatusOK); err != nil {
		return nil, err
	}

	return &introspection, nil
}
