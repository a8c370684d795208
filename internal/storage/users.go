package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"easeabill/internal/cohort"
	"easeabill/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const userColumns = "id, username, password_hash, location, latitude, longitude, monthly_income, budget_goal, is_onboarded, created_at, updated_at"

// CreateUser persists a new user with a generated id.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	now := utcNow()
	u := core.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, is_onboarded, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, fmtTime(u.CreatedAt), fmtTime(u.UpdatedAt))
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUserByID retrieves a user, or (nil, nil) when absent. The absent case is
// a normal business outcome for profile-dependent features.
func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by unique username, or (nil, nil).
func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

// ProfileUpdate carries the optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	Location      *string
	Latitude      *float64
	Longitude     *float64
	MonthlyIncome *decimal.Decimal
	BudgetGoal    *decimal.Decimal
	IsOnboarded   *bool
}

// UpdateUserProfile applies the non-nil profile fields and bumps updated_at.
func (r *SQLiteRepository) UpdateUserProfile(ctx context.Context, id string, upd ProfileUpdate) (*core.User, error) {
	u, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}

	if upd.Location != nil {
		u.Location = upd.Location
	}
	if upd.Latitude != nil {
		u.Latitude = upd.Latitude
	}
	if upd.Longitude != nil {
		u.Longitude = upd.Longitude
	}
	if upd.MonthlyIncome != nil {
		u.MonthlyIncome = upd.MonthlyIncome
	}
	if upd.BudgetGoal != nil {
		u.BudgetGoal = upd.BudgetGoal
	}
	if upd.IsOnboarded != nil {
		u.IsOnboarded = *upd.IsOnboarded
	}
	u.UpdatedAt = utcNow()

	_, err = r.db.ExecContext(ctx, `
		UPDATE users
		SET location = ?, latitude = ?, longitude = ?, monthly_income = ?, budget_goal = ?, is_onboarded = ?, updated_at = ?
		WHERE id = ?`,
		nullableString(u.Location), nullableFloat(u.Latitude), nullableFloat(u.Longitude),
		nullableDecimal(u.MonthlyIncome), nullableDecimal(u.BudgetGoal),
		boolToInt(u.IsOnboarded), fmtTime(u.UpdatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	return u, nil
}

// PeerStats aggregates the cohort: users at the exact location whose monthly
// income falls inside the bucket, one expense total per user over [start,
// end), averaged. Users with no qualifying expenses do not appear in the
// per-user aggregation, so they are excluded from both the average and the
// count.
func (r *SQLiteRepository) PeerStats(ctx context.Context, location string, bucket cohort.IncomeBucket, start, end time.Time, category *string) (decimal.Decimal, int, error) {
	query := `
		SELECT COALESCE(AVG(t.total), 0), COUNT(*)
		FROM (
			SELECT e.user_id AS uid, SUM(e.amount) AS total
			FROM expenses e
			JOIN users u ON u.id = e.user_id
			WHERE u.location = ?
			  AND u.monthly_income IS NOT NULL
			  AND u.monthly_income >= ?
			  AND e.date >= ? AND e.date < ?`
	args := []any{location, bucket.Lo, fmtTime(start), fmtTime(end)}
	if !bucket.Open {
		query += " AND u.monthly_income < ?"
		args = append(args, bucket.Hi)
	}
	if category != nil {
		query += " AND e.category = ?"
		args = append(args, *category)
	}
	query += `
			GROUP BY e.user_id
		) t`

	var (
		avg   float64
		count int
	)
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&avg, &count); err != nil {
		return decimal.Zero, 0, fmt.Errorf("peer stats: %w", err)
	}
	return decimal.NewFromFloat(avg), count, nil
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.InexactFloat64()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanUser(row rowScanner) (core.User, error) {
	var (
		u             core.User
		location      sql.NullString
		latitude      sql.NullFloat64
		longitude     sql.NullFloat64
		monthlyIncome sql.NullFloat64
		budgetGoal    sql.NullFloat64
		isOnboarded   int
		createdAt     string
		updatedAt     string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &location, &latitude, &longitude,
		&monthlyIncome, &budgetGoal, &isOnboarded, &createdAt, &updatedAt); err != nil {
		return core.User{}, err
	}

	if location.Valid {
		u.Location = &location.String
	}
	if latitude.Valid {
		u.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		u.Longitude = &longitude.Float64
	}
	if monthlyIncome.Valid {
		d := decimal.NewFromFloat(monthlyIncome.Float64)
		u.MonthlyIncome = &d
	}
	if budgetGoal.Valid {
		d := decimal.NewFromFloat(budgetGoal.Float64)
		u.BudgetGoal = &d
	}
	u.IsOnboarded = isOnboarded != 0

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.User{}, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.User{}, err
	}
	return u, nil
}
