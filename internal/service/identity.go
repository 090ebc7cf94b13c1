package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slumberware/slumber/internal/domain"
	"github.com/slumberware/slumber/internal/store"
	"github.com/slumberware/slumber/pkg/idx"
	"github.com/slumberware/slumber/pkg/slogx"
)

var (
	ErrInvalidFingerprint = errors.New("invalid_device_fingerprint")
)

// IdentityService owns anonymous account creation. A device fingerprint is an
// opaque client-generated UUID; the service never derives it from hardware
// identifiers and stores nothing else about the device.
type IdentityService struct {
	Store store.Store
}

// CreateOrGetAccount resolves a device fingerprint to its anonymous account,
// creating one on first use. The boolean reports whether this call created
// the account. The operation is idempotent: concurrent calls for the same
// fingerprint converge on a single account.
func (s *IdentityService) CreateOrGetAccount(
	ctx context.Context,
	deviceFingerprint string,
) (domain.Account, bool, error) {
	fingerprint, err := canonicalFingerprint(deviceFingerprint)
	if err != nil {
		return domain.Account{}, false, ErrInvalidFingerprint
	}

	account, err := s.Store.Accounts().GetAccountByFingerprint(ctx, fingerprint)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, false, err
	}

	now := time.Now().UTC()
	account = domain.Account{
		ID:                idx.New().String(),
		DeviceFingerprint: fingerprint,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost the insert race; the winner's row is the account.
			existing, getErr := s.Store.Accounts().GetAccountByFingerprint(ctx, fingerprint)
			if getErr != nil {
				return domain.Account{}, false, getErr
			}
			return existing, false, nil
		}
		return domain.Account{}, false, err
	}

	slogx.FromContext(ctx).Info("anonymous account created", "account_id", account.ID)
	return account, true, nil
}

// canonicalFingerprint validates and normalises a device fingerprint. Only
// UUIDs are accepted, and the stored form is always lowercase-hyphenated so
// lookups are case-insensitive.
func canonicalFingerprint(raw string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}
