package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/slumberware/slumber/internal/domain"
)

type signingKeysRepo struct {
	db dbtx
}

func (r *signingKeysRepo) CreateSigningKey(ctx context.Context, key domain.SigningKey) error {
	createdAt := key.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO signing_keys (id, kid, algorithm, private_key_encrypted, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		key.ID, key.Kid, key.Algorithm, key.PrivateKeyEncrypted, createdAt, key.ExpiresAt,
	)
	return mapConflict(err)
}

func (r *signingKeysRepo) ListActiveSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kid, algorithm, private_key_encrypted, created_at, retired_at, expires_at
		FROM signing_keys
		WHERE retired_at IS NULL AND expires_at > ?
		ORDER BY created_at DESC`,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, mapUnavailable(err)
	}
	defer rows.Close()

	return collectSigningKeys(rows)
}

func (r *signingKeysRepo) ListAllSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kid, algorithm, private_key_encrypted, created_at, retired_at, expires_at
		FROM signing_keys
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, mapUnavailable(err)
	}
	defer rows.Close()

	return collectSigningKeys(rows)
}

func (r *signingKeysRepo) RetireSigningKey(ctx context.Context, kid string, verifyUntil time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE signing_keys
		SET retired_at = ?, expires_at = ?
		WHERE kid = ? AND retired_at IS NULL`,
		time.Now().UTC(), verifyUntil.UTC(), kid,
	)
	return mapUnavailable(err)
}

func (r *signingKeysRepo) DeleteExpiredSigningKeys(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM signing_keys
		WHERE expires_at < ?`,
		time.Now().UTC(),
	)
	return mapUnavailable(err)
}

func scanSigningKey(row rowScanner) (domain.SigningKey, error) {
	var (
		k       domain.SigningKey
		retired sql.NullTime
	)
	err := row.Scan(&k.ID, &k.Kid, &k.Algorithm, &k.PrivateKeyEncrypted, &k.CreatedAt, &retired, &k.ExpiresAt)
	if err != nil {
		return domain.SigningKey{}, mapNotFound(err)
	}

	k.RetiredAt = mapNullTimePtr(retired)
	return k, nil
}

func collectSigningKeys(rows *sql.Rows) ([]domain.SigningKey, error) {
	var keys []domain.SigningKey
	for rows.Next() {
		key, err := scanSigningKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
