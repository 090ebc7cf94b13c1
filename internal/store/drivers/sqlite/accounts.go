package sqlite

import (
	"context"
	"time"

	"github.com/slumberware/slumber/internal/domain"
)

type accountsRepo struct {
	db dbtx
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	now := time.Now().UTC()
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, device_fingerprint, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		a.ID, a.DeviceFingerprint, createdAt, createdAt,
	)
	return mapConflict(err)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, device_fingerprint, created_at, updated_at
		FROM accounts
		WHERE id = ?`,
		id,
	)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByFingerprint(ctx context.Context, fingerprint string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, device_fingerprint, created_at, updated_at
		FROM accounts
		WHERE device_fingerprint = ?`,
		fingerprint,
	)
	return scanAccount(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.DeviceFingerprint, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}
