package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"easeabill/internal/core"
)

// AddToken persists a bearer token.
func (r *SQLiteRepository) AddToken(ctx context.Context, token, userID string, expiresAt time.Time) (core.Token, error) {
	t := core.Token{
		Token:     token,
		UserID:    userID,
		ExpiresAt: core.EnsureUTC(expiresAt),
		CreatedAt: utcNow(),
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tokens (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		t.Token, t.UserID, fmtTime(t.ExpiresAt), fmtTime(t.CreatedAt))
	if err != nil {
		return core.Token{}, fmt.Errorf("insert token: %w", err)
	}
	return t, nil
}

// GetToken fetches a token record, or (nil, nil) when absent.
func (r *SQLiteRepository) GetToken(ctx context.Context, token string) (*core.Token, error) {
	var (
		t         core.Token
		expiresAt string
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at, created_at FROM tokens WHERE token = ?", token).
		Scan(&t.Token, &t.UserID, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	if t.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteToken removes a token (logout). Deleting an absent token is not an
// error.
func (r *SQLiteRepository) DeleteToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tokens WHERE token = ?", token); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// DeleteExpiredTokens sweeps tokens past their expiry.
func (r *SQLiteRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM tokens WHERE expires_at < ?", fmtTime(core.EnsureUTC(now)))
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired tokens rows affected: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expired tokens swept", "count", n)
	}
	return n, nil
}
