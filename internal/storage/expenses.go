package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"easeabill/internal/core"
	"easeabill/internal/stats"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

const expenseColumns = "id, user_id, title, amount, category, date, description, created_at, updated_at"

// CreateExpense persists a new expense and returns it with identity and
// timestamps filled in.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validate expense: %w", err)
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := utcNow()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.Date = core.EnsureUTC(e.Date)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, title, amount, category, date, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.UserID, e.Title, e.Amount.InexactFloat64(), e.Category,
		fmtTime(e.Date), e.Description, fmtTime(e.CreatedAt), fmtTime(e.UpdatedAt))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID, "user_id", e.UserID, "category", e.Category, "amount", e.Amount)
	return e, nil
}

// GetExpense retrieves one expense by id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id.String())
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns the user's expenses, newest first, capped at limit.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateExpense applies the non-nil fields and bumps updated_at. Returns
// ErrNotFound if the expense does not belong to the user.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, userID string, id uuid.UUID, title *string, amount *decimal.Decimal, category *string, date *time.Time, description *string) (core.Expense, error) {
	e, err := r.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if e.UserID != userID {
		return core.Expense{}, ErrNotFound
	}

	if title != nil {
		e.Title = *title
	}
	if amount != nil {
		e.Amount = *amount
	}
	if category != nil {
		e.Category = *category
	}
	if date != nil {
		e.Date = core.EnsureUTC(*date)
	}
	if description != nil {
		e.Description = *description
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validate expense: %w", err)
	}
	e.UpdatedAt = utcNow()

	_, err = r.db.ExecContext(ctx, `
		UPDATE expenses
		SET title = ?, amount = ?, category = ?, date = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		e.Title, e.Amount.InexactFloat64(), e.Category, fmtTime(e.Date), e.Description,
		fmtTime(e.UpdatedAt), id.String())
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return e, nil
}

// DeleteExpense removes the user's expense. Returns ErrNotFound when nothing
// was deleted.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND user_id = ?", id.String(), userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SumExpenses totals the user's expense amounts with date in [start, end),
// optionally restricted to one category.
func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID string, start, end time.Time, category *string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE user_id = ? AND date >= ? AND date < ?`
	args := []any{userID, fmtTime(start), fmtTime(end)}
	if category != nil {
		query += " AND category = ?"
		args = append(args, *category)
	}

	var total float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	return decimal.NewFromFloat(total), nil
}

// CategorySums returns per-category totals over [start, end), largest first.
func (r *SQLiteRepository) CategorySums(ctx context.Context, userID string, start, end time.Time) ([]stats.CategorySum, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COALESCE(SUM(amount), 0) AS total
		FROM expenses
		WHERE user_id = ? AND date >= ? AND date < ?
		GROUP BY category
		ORDER BY total DESC`,
		userID, fmtTime(start), fmtTime(end))
	if err != nil {
		return nil, fmt.Errorf("category sums: %w", err)
	}
	defer rows.Close()

	var out []stats.CategorySum
	for rows.Next() {
		var (
			category string
			total    float64
		)
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, stats.CategorySum{Category: category, Total: decimal.NewFromFloat(total)})
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e           core.Expense
		id          string
		amount      float64
		date        string
		description sql.NullString
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&id, &e.UserID, &e.Title, &amount, &e.Category, &date, &description, &createdAt, &updatedAt); err != nil {
		return core.Expense{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense id: %w", err)
	}
	e.ID = parsed
	e.Amount = decimal.NewFromFloat(amount)
	e.Description = description.String

	if e.Date, err = parseTime(date); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Expense{}, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}
