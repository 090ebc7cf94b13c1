package service

import (
	"context"
	"errors"
	"time"

	"github.com/slumberware/slumber/internal/domain"
	"github.com/slumberware/slumber/internal/store"
	"github.com/slumberware/slumber/pkg/idx"
)

const (
	// maxSleepNotesLength bounds free-form notes so a client can't stuff
	// arbitrary blobs into the table.
	maxSleepNotesLength = 2000

	// maxSleepDuration rejects obviously bogus entries.
	maxSleepDuration = 48 * time.Hour
)

var (
	ErrInvalidSleepEntry = errors.New("invalid_sleep_entry")
	ErrEntryNotFound     = errors.New("sleep_entry_not_found")
)

// SleepService owns the protected per-account sleep data. The account ID
// always comes from the verified token, never from a request body.
type SleepService struct {
	Store store.Store
}

// CreateEntry validates and records a sleep entry for the given account.
func (s *SleepService) CreateEntry(
	ctx context.Context,
	accountID string,
	startedAt, endedAt time.Time,
	quality int,
	notes string,
) (domain.SleepEntry, error) {
	if err := validateSleepEntry(startedAt, endedAt, quality, notes); err != nil {
		return domain.SleepEntry{}, err
	}

	now := time.Now().UTC()
	entry := domain.SleepEntry{
		ID:        idx.New().String(),
		AccountID: accountID,
		StartedAt: startedAt.UTC(),
		EndedAt:   endedAt.UTC(),
		Quality:   quality,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.SleepEntries().CreateSleepEntry(ctx, entry); err != nil {
		return domain.SleepEntry{}, err
	}
	return entry, nil
}

// ListEntries returns the account's entries, newest first.
func (s *SleepService) ListEntries(ctx context.Context, accountID string) ([]domain.SleepEntry, error) {
	return s.Store.SleepEntries().ListSleepEntriesByAccount(ctx, accountID)
}

// GetEntry fetches one entry scoped to the account. Another account's entry
// is reported as not found, never as forbidden.
func (s *SleepService) GetEntry(ctx context.Context, accountID, entryID string) (domain.SleepEntry, error) {
	if _, err := idx.Parse(entryID); err != nil {
		return domain.SleepEntry{}, ErrEntryNotFound
	}

	entry, err := s.Store.SleepEntries().GetSleepEntryByID(ctx, accountID, entryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SleepEntry{}, ErrEntryNotFound
		}
		return domain.SleepEntry{}, err
	}
	return entry, nil
}

// DeleteEntry removes one entry scoped to the account. Like GetEntry, another
// account's entry is reported as not found.
func (s *SleepService) DeleteEntry(ctx context.Context, accountID, entryID string) error {
	if _, err := idx.Parse(entryID); err != nil {
		return ErrEntryNotFound
	}

	if err := s.Store.SleepEntries().DeleteSleepEntry(ctx, accountID, entryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	return nil
}

func validateSleepEntry(startedAt, endedAt time.Time, quality int, notes string) error {
	if startedAt.IsZero() || endedAt.IsZero() {
		return ErrInvalidSleepEntry
	}
	if !endedAt.After(startedAt) {
		return ErrInvalidSleepEntry
	}
	if endedAt.Sub(startedAt) > maxSleepDuration {
		return ErrInvalidSleepEntry
	}
	if quality < domain.SleepQualityMin || quality > domain.SleepQualityMax {
		return ErrInvalidSleepEntry
	}
	if len(notes) > maxSleepNotesLength {
		return ErrInvalidSleepEntry
	}
	return nil
}
