package sqlite

import (
	"context"
	"time"

	"github.com/slumberware/slumber/internal/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens
			(id, account_id, token_hash, session_id, scopes, amr, expires_at, revoked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		t.ID, t.AccountID, t.TokenHash, t.SessionID,
		joinScopes(t.Scopes), joinScopes(t.AMR),
		t.ExpiresAt, now, now,
	)
	return mapConflict(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(
	ctx context.Context,
	hash string,
) (domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, token_hash, session_id, scopes, amr, expires_at, revoked, created_at, updated_at
		FROM refresh_tokens
		WHERE token_hash = ?`,
		hash,
	)

	var (
		t      domain.RefreshToken
		scopes string
		amr    string
	)
	err := row.Scan(
		&t.ID, &t.AccountID, &t.TokenHash, &t.SessionID,
		&scopes, &amr,
		&t.ExpiresAt, &t.Revoked, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}

	t.Scopes = splitScopes(scopes)
	t.AMR = splitScopes(amr)
	return t, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked = 1, updated_at = ?
		WHERE token_hash = ?`,
		time.Now().UTC(), hash,
	)
	return mapUnavailable(err)
}

func (r *refreshTokensRepo) RevokeAllAccountRefreshTokens(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked = 1, updated_at = ?
		WHERE account_id = ? AND revoked = 0`,
		time.Now().UTC(), accountID,
	)
	return mapUnavailable(err)
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at < ?`,
		time.Now().UTC(),
	)
	return mapUnavailable(err)
}
