package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/slumberware/slumber/internal/domain"
	"github.com/slumberware/slumber/internal/service"
	"github.com/slumberware/slumber/pkg/httpx"
	"github.com/slumberware/slumber/pkg/slogx"
	"github.com/slumberware/slumber/pkg/slumbersdk"
)

// SleepHandler serves the protected sleep entry endpoints. The owning account
// always comes from the verified token identity in the request context; an
// account_id in the request body is ignored.
type SleepHandler struct {
	SleepService *service.SleepService
}

// HandleCreate godoc
//
//	@Summary		Record Sleep Entry
//	@Description	Records a sleep period for the authenticated account.
//	@Tags			Sleep
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		slumbersdk.CreateSleepEntryRequest	true	"Sleep entry"
//	@Success		201		{object}	slumbersdk.SleepEntry				"The recorded entry"
//	@Failure		400		{object}	slumbersdk.ErrorResponse			"error, error_description"
//	@Failure		401		{object}	slumbersdk.ErrorResponse			"error, error_description"
//	@Failure		403		{object}	slumbersdk.ErrorResponse			"error, error_description"
//	@Router			/v1/sleep [post].
func (h *SleepHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	accountID := httpx.AccountIDFromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/json") {
		slumbersdk.ErrInvalidContentType.WriteError(w)
		return
	}

	var req slumbersdk.CreateSleepEntryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16*1024)).Decode(&req); err != nil {
		slumbersdk.ErrInvalidJSONBody.WriteError(w)
		return
	}

	startedAt, err := time.Parse(time.RFC3339, req.StartedAt)
	if err != nil {
		writeInvalidSleepEntry(w, "started_at must be RFC3339")
		return
	}
	endedAt, err := time.Parse(time.RFC3339, req.EndedAt)
	if err != nil {
		writeInvalidSleepEntry(w, "ended_at must be RFC3339")
		return
	}

	entry, err := h.SleepService.CreateEntry(ctx, accountID, startedAt, endedAt, req.Quality, req.Notes)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSleepEntry) {
			writeInvalidSleepEntry(w, "entry failed validation")
			return
		}
		writeServiceError(w, log, "sleep entry creation failed", err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, sleepEntryToResponse(entry))
}

// HandleList godoc
//
//	@Summary		List Sleep Entries
//	@Description	Lists the authenticated account's sleep entries, newest first.
//	@Tags			Sleep
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	slumbersdk.ListSleepEntriesResponse	"entries"
//	@Failure		401	{object}	slumbersdk.ErrorResponse			"error, error_description"
//	@Failure		403	{object}	slumbersdk.ErrorResponse			"error, error_description"
//	@Router			/v1/sleep [get].
func (h *SleepHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	accountID := httpx.AccountIDFromContext(ctx)

	entries, err := h.SleepService.ListEntries(ctx, accountID)
	if err != nil {
		writeServiceError(w, log, "sleep entry listing failed", err)
		return
	}

	response := slumbersdk.ListSleepEntriesResponse{
		Entries: make([]slumbersdk.SleepEntry, 0, len(entries)),
	}
	for _, e := range entries {
		response.Entries = append(response.Entries, sleepEntryToResponse(e))
	}

	httpx.WriteJSON(w, http.StatusOK, response)
}

// HandleGet godoc
//
//	@Summary		Get Sleep Entry
//	@Description	Fetches one of the authenticated account's sleep entries by ID.
//	@Description	Entries belonging to other accounts are reported as 404, never 403.
//	@Tags			Sleep
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string						true	"Entry ID (ULID)"
//	@Success		200	{object}	slumbersdk.SleepEntry		"The entry"
//	@Failure		401	{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Failure		404	{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Router			/v1/sleep/{id} [get].
func (h *SleepHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	accountID := httpx.AccountIDFromContext(ctx)

	entry, err := h.SleepService.GetEntry(ctx, accountID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			slumbersdk.ErrNotFound.WriteError(w)
			return
		}
		writeServiceError(w, log, "sleep entry fetch failed", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sleepEntryToResponse(entry))
}

// HandleDelete godoc
//
//	@Summary		Delete Sleep Entry
//	@Description	Deletes one of the authenticated account's sleep entries by ID.
//	@Description	Entries belonging to other accounts are reported as 404, never 403.
//	@Tags			Sleep
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Entry ID (ULID)"
//	@Success		204	"Deleted"
//	@Failure		401	{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Failure		404	{object}	slumbersdk.ErrorResponse	"error, error_description"
//	@Router			/v1/sleep/{id} [delete].
func (h *SleepHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	accountID := httpx.AccountIDFromContext(ctx)

	if err := h.SleepService.DeleteEntry(ctx, accountID, r.PathValue("id")); err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			slumbersdk.ErrNotFound.WriteError(w)
			return
		}
		writeServiceError(w, log, "sleep entry deletion failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeInvalidSleepEntry(w http.ResponseWriter, desc string) {
	slumbersdk.NewOAuth2Error(http.StatusBadRequest, "invalid_request", desc).WriteError(w)
}

func sleepEntryToResponse(e domain.SleepEntry) slumbersdk.SleepEntry {
	return slumbersdk.SleepEntry{
		ID:        e.ID,
		AccountID: e.AccountID,
		StartedAt: e.StartedAt.UTC().Format(time.RFC3339),
		EndedAt:   e.EndedAt.UTC().Format(time.RFC3339),
		Quality:   e.Quality,
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
