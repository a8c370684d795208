package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"easeabill/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const budgetColumns = "id, user_id, category, limit_amount, period, start_date, end_date, created_at, updated_at"

// CreateBudget persists a new budget.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("validate budget: %w", err)
	}

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := utcNow()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.StartDate = core.EnsureUTC(b.StartDate)
	b.EndDate = core.EnsureUTC(b.EndDate)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category, limit_amount, period, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.UserID, nullableString(b.Category), b.Limit.InexactFloat64(),
		string(b.Period), fmtTime(b.StartDate), fmtTime(b.EndDate),
		fmtTime(b.CreatedAt), fmtTime(b.UpdatedAt))
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", b.ID, "user_id", b.UserID, "period", b.Period, "limit", b.Limit)
	return b, nil
}

// GetBudget retrieves one budget by id.
func (r *SQLiteRepository) GetBudget(ctx context.Context, id uuid.UUID) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE id = ?", id.String())
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns the user's budgets ordered most-recently-started first.
// With activeOnly set, only budgets whose [start, end) window contains now.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string, activeOnly bool, now time.Time) ([]core.Budget, error) {
	query := "SELECT " + budgetColumns + " FROM budgets WHERE user_id = ?"
	args := []any{userID}
	if activeOnly {
		ts := fmtTime(core.EnsureUTC(now))
		query += " AND start_date <= ? AND end_date > ?"
		args = append(args, ts, ts)
	}
	query += " ORDER BY start_date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBudget applies the non-nil fields and bumps updated_at. The category
// pointer-to-pointer distinguishes "leave unchanged" (nil) from "make
// aggregate" (pointer to nil).
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, userID string, id uuid.UUID, category **string, limit *decimal.Decimal, period *core.Period, startDate, endDate *time.Time) (core.Budget, error) {
	b, err := r.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	if b.UserID != userID {
		return core.Budget{}, ErrNotFound
	}

	if category != nil {
		b.Category = *category
	}
	if limit != nil {
		b.Limit = *limit
	}
	if period != nil {
		b.Period = *period
	}
	if startDate != nil {
		b.StartDate = core.EnsureUTC(*startDate)
	}
	if endDate != nil {
		b.EndDate = core.EnsureUTC(*endDate)
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("validate budget: %w", err)
	}
	b.UpdatedAt = utcNow()

	_, err = r.db.ExecContext(ctx, `
		UPDATE budgets
		SET category = ?, limit_amount = ?, period = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?`,
		nullableString(b.Category), b.Limit.InexactFloat64(), string(b.Period),
		fmtTime(b.StartDate), fmtTime(b.EndDate), fmtTime(b.UpdatedAt), id.String())
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return b, nil
}

// DeleteBudget removes the user's budget. Returns ErrNotFound when nothing
// was deleted.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM budgets WHERE id = ? AND user_id = ?", id.String(), userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b         core.Budget
		id        string
		category  sql.NullString
		limit     float64
		period    string
		startDate string
		endDate   string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&id, &b.UserID, &category, &limit, &period, &startDate, &endDate, &createdAt, &updatedAt); err != nil {
		return core.Budget{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse budget id: %w", err)
	}
	b.ID = parsed
	if category.Valid {
		b.Category = &category.String
	}
	b.Limit = decimal.NewFromFloat(limit)
	b.Period = core.Period(period)

	if b.StartDate, err = parseTime(startDate); err != nil {
		return core.Budget{}, err
	}
	if b.EndDate, err = parseTime(endDate); err != nil {
		return core.Budget{}, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Budget{}, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}
