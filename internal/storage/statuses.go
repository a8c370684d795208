package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"easeabill/internal/core"

	"github.com/google/uuid"
)

// AddBudgetStatus persists one goal-evaluation notification record. The
// payload is stored as JSON.
func (r *SQLiteRepository) AddBudgetStatus(ctx context.Context, bs core.BudgetStatus) (core.BudgetStatus, error) {
	if bs.ID == uuid.Nil {
		bs.ID = uuid.New()
	}
	if bs.Timestamp.IsZero() {
		bs.Timestamp = utcNow()
	}
	bs.Timestamp = core.EnsureUTC(bs.Timestamp)

	data, err := json.Marshal(bs.Data)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("marshal status payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO budget_statuses (id, user_id, goal_type, status, should_notify, message, data, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		bs.ID.String(), bs.UserID, bs.GoalType, string(bs.Status),
		boolToInt(bs.ShouldNotify), bs.Message, string(data), fmtTime(bs.Timestamp))
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("insert budget status: %w", err)
	}
	return bs, nil
}

// ListBudgetStatuses returns the user's statuses recorded on the given UTC
// day, newest first.
func (r *SQLiteRepository) ListBudgetStatuses(ctx context.Context, userID string, day time.Time) ([]core.BudgetStatus, error) {
	day = core.EnsureUTC(day)
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.AddDate(0, 0, 1)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, goal_type, status, should_notify, message, data, timestamp
		FROM budget_statuses
		WHERE user_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC`,
		userID, fmtTime(startOfDay), fmtTime(endOfDay))
	if err != nil {
		return nil, fmt.Errorf("list budget statuses: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetStatus
	for rows.Next() {
		var (
			bs           core.BudgetStatus
			id           string
			status       string
			shouldNotify int
			data         string
			timestamp    string
		)
		if err := rows.Scan(&id, &bs.UserID, &bs.GoalType, &status, &shouldNotify, &bs.Message, &data, &timestamp); err != nil {
			return nil, fmt.Errorf("scan budget status: %w", err)
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse status id: %w", err)
		}
		bs.ID = parsed
		bs.Status = core.GoalStatus(status)
		bs.ShouldNotify = shouldNotify != 0
		if err := json.Unmarshal([]byte(data), &bs.Data); err != nil {
			return nil, fmt.Errorf("unmarshal status payload: %w", err)
		}
		if bs.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}
		out = append(out, bs)
	}
	return out, rows.Err()
}
