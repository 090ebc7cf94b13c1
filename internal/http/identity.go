package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/slumberware/slumber/internal/service"
	"github.com/slumberware/slumber/pkg/httpx"
	"github.com/slumberware/slumber/pkg/slogx"
	"github.com/slumberware/slumber/pkg/slumbersdk"
)

// identityRequest is the JSON body for POST /v1/identity. The fingerprint is
// the only field; anything else in the body is ignored.
type identityRequest struct {
	DeviceFingerprint string `json:"device_fingerprint"`
}

// IdentityHandler serves POST /v1/identity. The endpoint is idempotent: the
// same device fingerprint always resolves to the same anonymous account.
type IdentityHandler struct {
	IdentityService *service.IdentityService
}

// ServeHTTP godoc
//
//	@Summary		Create or Get Anonymous Identity
//	@Description	Resolves a client-generated device fingerprint (UUID) to an anonymous account, creating one on first use.
//	@Description	Idempotent: repeated calls with the same fingerprint return the same account with created=false.
//	@Tags			Identity
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identityRequest				true	"Device fingerprint"
//	@Success		200		{object}	slumbersdk.IdentityResponse	"account_id, created, created_at"
//	@Failure		400		{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Failure		503		{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Router			/v1/identity [post].
func (h *IdentityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/json") {
		slumbersdk.ErrInvalidContentType.WriteError(w)
		return
	}

	var req identityRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		slumbersdk.ErrInvalidJSONBody.WriteError(w)
		return
	}

	account, created, err := h.IdentityService.CreateOrGetAccount(ctx, req.DeviceFingerprint)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFingerprint) {
			slumbersdk.NewOAuth2Error(
				http.StatusBadRequest,
				"invalid_request",
				"device_fingerprint must be a valid UUID",
			).WriteError(w)
			return
		}
		writeServiceError(w, log, "identity creation failed", err)
		return
	}

	response := slumbersdk.IdentityResponse{
		AccountID: account.ID,
		Created:   created,
		CreatedAt: account.CreatedAt.UTC().Format(time.RFC3339),
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}
