package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/slumberware/slumber/internal/domain"
)

type sleepEntriesRepo struct {
	db dbtx
}

func (r *sleepEntriesRepo) CreateSleepEntry(ctx context.Context, e domain.SleepEntry) error {
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sleep_entries
			(id, account_id, started_at, ended_at, quality, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AccountID, e.StartedAt, e.EndedAt, e.Quality, e.Notes, now, now,
	)
	return mapConflict(err)
}

func (r *sleepEntriesRepo) GetSleepEntryByID(ctx context.Context, accountID, entryID string) (domain.SleepEntry, error) {
	// Scoping by account makes someone else's entry look like a missing one.
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, started_at, ended_at, quality, notes, created_at, updated_at
		FROM sleep_entries
		WHERE id = ? AND account_id = ?`,
		entryID, accountID,
	)
	return scanSleepEntry(row)
}

func (r *sleepEntriesRepo) ListSleepEntriesByAccount(ctx context.Context, accountID string) ([]domain.SleepEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, started_at, ended_at, quality, notes, created_at, updated_at
		FROM sleep_entries
		WHERE account_id = ?
		ORDER BY started_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, mapUnavailable(err)
	}
	defer rows.Close()

	var entries []domain.SleepEntry
	for rows.Next() {
		entry, err := scanSleepEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *sleepEntriesRepo) DeleteSleepEntry(ctx context.Context, accountID, entryID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM sleep_entries
		WHERE id = ? AND account_id = ?`,
		entryID, accountID,
	)
	if err != nil {
		return mapUnavailable(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func scanSleepEntry(row rowScanner) (domain.SleepEntry, error) {
	var e domain.SleepEntry
	err := row.Scan(&e.ID, &e.AccountID, &e.StartedAt, &e.EndedAt, &e.Quality, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return domain.SleepEntry{}, mapNotFound(err)
	}
	return e, nil
}
