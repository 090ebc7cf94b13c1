package store

import (
	"context"
	"errors"
	"time"

	"github.com/slumberware/slumber/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrUnavailable marks failures of the backing database itself, as
	// opposed to failures of the request. Handlers answer it with 503 so
	// callers can tell a degraded service from a rejected request.
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns tidy
// and testable, and to stop callers from accidentally nesting transactions.
type Store interface {
	Accounts() Accounts
	RefreshTokens() RefreshTokens
	SigningKeys() SigningKeys
	SleepEntries() SleepEntries

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh rotation).
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByFingerprint returns the account bound to a device
	// fingerprint. Used by the device grant and identity endpoint.
	GetAccountByFingerprint(ctx context.Context, fingerprint string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the fingerprint is already bound.
	// Accounts are never deleted; the fingerprint binding is permanent.
	CreateAccount(ctx context.Context, a domain.Account) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its SHA-256 fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked=1, sets updated_at.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAllAccountRefreshTokens bulk revocation for an account (e.g.,
	// device compromise response).
	RevokeAllAccountRefreshTokens(ctx context.Context, accountID string) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type SigningKeys interface {
	// CreateSigningKey stores a new signing key with encrypted private key material.
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	// ListActiveSigningKeys returns all non-retired, non-expired signing keys
	// ordered by creation date (newest first).
	ListActiveSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// ListAllSigningKeys returns all signing keys (including retired and expired)
	// ordered by creation date (newest first). Used for verification during grace period.
	ListAllSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// RetireSigningKey marks a key as retired and extends its expiry to
	// verifyUntil so outstanding tokens keep verifying through the grace
	// period. Retired keys never sign again.
	RetireSigningKey(ctx context.Context, kid string, verifyUntil time.Time) error

	// DeleteExpiredSigningKeys removes all keys that have passed their
	// expires_at timestamp. Housekeeping to prevent unbounded growth.
	DeleteExpiredSigningKeys(ctx context.Context) error
}

type SleepEntries interface {
	// CreateSleepEntry inserts a new entry (id is ULID).
	CreateSleepEntry(ctx context.Context, e domain.SleepEntry) error

	// GetSleepEntryByID fetches one entry scoped to an account. An entry
	// owned by another account returns ErrNotFound, indistinguishable from
	// a missing one.
	GetSleepEntryByID(ctx context.Context, accountID, entryID string) (domain.SleepEntry, error)

	// ListSleepEntriesByAccount returns an account's entries, newest first.
	ListSleepEntriesByAccount(ctx context.Context, accountID string) ([]domain.SleepEntry, error)

	// DeleteSleepEntry removes one entry scoped to an account.
	DeleteSleepEntry(ctx context.Context, accountID, entryID string) error
}
