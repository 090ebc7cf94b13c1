package http

import (
	"net/http"
	"strings"

	"github.com/slumberware/slumber/internal/service"
	"github.com/slumberware/slumber/pkg/httpx"
	"github.com/slumberware/slumber/pkg/slumbersdk"
)

// IntrospectHandler serves POST /v1/introspect following RFC7662.
// It verifies the provided token and returns metadata about it. The endpoint
// itself requires authentication so random callers cannot probe tokens.
type IntrospectHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Token Introspection Endpoint
//	@Description	Introspects a token and returns metadata about it (RFC 7662)
//	@Tags			Tokens
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Security		BearerAuth
//	@Param			token			formData	string								true	"The token to introspect"
//	@Param			token_type_hint	formData	string								false	"Hint about token type (currently only 'access_token' is supported)"	Enums(access_token)
//	@Success		200				{object}	slumbersdk.IntrospectionResponse	"Token introspection result"
//	@Failure		400				{object}	slumbersdk.ErrorResponse			"error, error_description"
//	@Failure		401				{object}	slumbersdk.ErrorResponse			"error, error_description"
//	@Header			200				{string}	Cache-Control						"no-store"
//	@Header			200				{string}	Pragma								"no-cache"
//	@Router			/v1/introspect [post].
func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// 1. Ensure the right content-type
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		slumbersdk.ErrInvalidContentType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		slumbersdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	token := r.Form.Get("token")
	tokenTypeHint := r.Form.Get("token_type_hint")

	if token == "" {
		slumbersdk.ErrInvalidRequest.WriteError(w)
		return
	}

	// 3. Only access tokens (JWTs) can be introspected. A different hint
	// yields active=false without revealing why, per RFC7662.
	if tokenTypeHint != "" && tokenTypeHint != "access_token" {
		writeInactiveResponse(w)
		return
	}

	response := h.TokenService.IntrospectToken(ctx, token)
	if !response.Active {
		writeInactiveResponse(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}

// writeInactiveResponse returns the minimal RFC7662 response for inactive tokens.
func writeInactiveResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)

	// Per RFC7662: "If the token is not active, does not exist on this server,
	// or the protected resource is not allowed to introspect this particular token,
	// then the authorization server MUST return an introspection response with
	// the 'active' field set to 'false'"
	_, _ = w.Write([]byte(`{"active":false}`))
}
