package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/slumberware/slumber/internal/domain"
	"github.com/slumberware/slumber/internal/service"
	"github.com/slumberware/slumber/pkg/httpx"
	"github.com/slumberware/slumber/pkg/slogx"
	"github.com/slumberware/slumber/pkg/slumbersdk"
)

// TokenHandler serves POST /v1/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Token Endpoint
//	@Description	Issues access and refresh tokens using the device and refresh_token grant types.
//	@Description	The device grant exchanges a device fingerprint for a token pair, creating the anonymous account on first use.
//	@Description	The refresh_token grant rotates the refresh token; the presented token is invalidated.
//	@Tags			Tokens
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type			formData	string						true	"Grant type"	Enums(device, refresh_token)
//	@Param			device_fingerprint	formData	string						false	"Device fingerprint UUID (required for device grant)"
//	@Param			refresh_token		formData	string						false	"Refresh token (required for refresh_token grant)"
//	@Param			scope				formData	string						false	"Space-delimited list of scopes"
//	@Success		200					{object}	slumbersdk.TokenResponse	"access_token, refresh_token, token_type, expires_in, scope"
//	@Failure		400					{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Failure		401					{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Failure		500					{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Header			200					{string}	Cache-Control				"no-store"
//	@Header			200					{string}	Pragma						"no-cache"
//	@Router			/v1/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	// 3. Handle the grant type
	grantType := r.Form.Get("grant_type")
	switch grantType {
	case "device":
		h.handleDeviceGrant(w, r, r.Form)
	case "refresh_token":
		h.handleRefreshGrant(w, r, r.Form)
	default:
		slumbersdk.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (h *TokenHandler) handleDeviceGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	fingerprint := strings.TrimSpace(form.Get("device_fingerprint"))
	scopeStr := strings.TrimSpace(form.Get("scope"))
	requested := httpx.ParseSpaceDelimitedFields(scopeStr)

	if fingerprint == "" {
		slumbersdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeDevice(ctx, fingerprint, requested)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidGrant):
			slumbersdk.ErrInvalidGrant.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			slumbersdk.ErrInvalidScope.WriteError(w)
		default:
			writeServiceError(w, log, "device grant failed", err)
		}
		return
	}

	writeTokenResponse(w, pair)
}

func writeTokenResponse(w http.ResponseWriter, pair *domain.TokenPair) {
	response := slumbersdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		Scope:        strings.TrimSpace(pair.Scope),
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}

func (h *TokenHandler) handleRefreshGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	refresh := form.Get("refresh_token")
	scopeStr := strings.TrimSpace(form.Get("scope"))
	requested := httpx.ParseSpaceDelimitedFields(scopeStr)

	if refresh == "" {
		slumbersdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeRefreshToken(ctx, refresh, requested)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefresh):
			slumbersdk.ErrInvalidGrant.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			slumbersdk.ErrInvalidScope.WriteError(w)
		default:
			writeServiceError(w, log, "refresh grant failed", err)
		}
		return
	}

	writeTokenResponse(w, pair)
}
