package goals

import (
	"context"
	"fmt"
	"time"

	"easeabill/internal/core"
)

// AlertTypeBudget tags real-time alerts raised right after an expense insert.
const AlertTypeBudget = "BUDGET_ALERT"

// Alert is a notification-worthy evaluation result.
type Alert struct {
	Type    string           `json:"type"`
	Status  core.GoalStatus  `json:"status"`
	Message string           `json:"message"`
	Data    core.GoalPayload `json:"data"`
}

// BudgetWithSpent is a budget joined with its computed spend, shaped for the
// client's Budget.fromJson().
type BudgetWithSpent struct {
	ID        string  `json:"id"`
	Category  *string `json:"category"`
	Limit     float64 `json:"limit"`
	Spent     float64 `json:"spent"`
	Period    string  `json:"period"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	UserID    string  `json:"userId"`
}

// SpendSummary is the current-window total plus pacing figures.
type SpendSummary struct {
	Period          core.Period `json:"period"`
	Window          core.Window `json:"window"`
	Spent           float64     `json:"spent"`
	ProgressRatio   float64     `json:"progressRatio"`
	ProgressPercent float64     `json:"progressPercent"`
}

// EvaluateAllBudgetGoals evaluates every budget of the user independently,
// in store order (most-recently-started first). Used for the dashboard and
// the periodic summary.
func (e *Evaluator) EvaluateAllBudgetGoals(ctx context.Context, userID string, now time.Time, activeOnly bool) ([]core.BudgetGoalResult, error) {
	now = core.EnsureUTC(now)
	budgets, err := e.store.ListBudgets(ctx, userID, activeOnly, now)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	results := make([]core.BudgetGoalResult, 0, len(budgets))
	for _, b := range budgets {
		r, err := e.EvaluateBudgetGoal(ctx, userID, b, now)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// EvaluateOnNewExpense re-evaluates every active budget impacted by a freshly
// persisted expense and returns only the notification-worthy results. This is
// the hook the expense service calls to decide whether to push an alert.
func (e *Evaluator) EvaluateOnNewExpense(ctx context.Context, userID string, expense core.Expense, now time.Time) ([]Alert, error) {
	now = core.EnsureUTC(now)
	budgets, err := e.store.ListBudgets(ctx, userID, true, now)
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}

	var alerts []Alert
	for _, b := range budgets {
		if !b.Impacts(expense.Category) {
			continue
		}
		r, err := e.EvaluateBudgetGoal(ctx, userID, b, now)
		if err != nil {
			return nil, err
		}
		if !r.ShouldNotify {
			continue
		}
		alerts = append(alerts, Alert{
			Type:    AlertTypeBudget,
			Status:  r.Status,
			Message: r.Message,
			Data:    r.Data,
		})
	}
	return alerts, nil
}

// CurrentSpendSummary returns the total spend in the current period window
// together with the linear pacing progress.
func (e *Evaluator) CurrentSpendSummary(ctx context.Context, userID string, period core.Period, now time.Time) (SpendSummary, error) {
	now = core.EnsureUTC(now)
	start, end, err := core.WindowForPeriod(period, now)
	if err != nil {
		return SpendSummary{}, err
	}

	spent, err := e.store.SumExpenses(ctx, userID, start, end, nil)
	if err != nil {
		return SpendSummary{}, fmt.Errorf("sum expenses: %w", err)
	}

	prog := core.ProgressRatio(start, end, now)
	return SpendSummary{
		Period: period,
		Window: core.Window{
			Start: start.Format(time.RFC3339),
			End:   end.Format(time.RFC3339),
		},
		Spent:           spent.InexactFloat64(),
		ProgressRatio:   prog,
		ProgressPercent: prog * 100.0,
	}, nil
}

// BudgetsWithSpent lists the user's budgets with their computed spend, in
// store order.
func (e *Evaluator) BudgetsWithSpent(ctx context.Context, userID string, now time.Time, activeOnly bool) ([]BudgetWithSpent, error) {
	now = core.EnsureUTC(now)
	budgets, err := e.store.ListBudgets(ctx, userID, activeOnly, now)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	out := make([]BudgetWithSpent, 0, len(budgets))
	for _, b := range budgets {
		spent, err := e.store.SumExpenses(ctx, userID, core.EnsureUTC(b.StartDate), core.EnsureUTC(b.EndDate), b.Category)
		if err != nil {
			return nil, fmt.Errorf("sum expenses for budget %s: %w", b.ID, err)
		}
		out = append(out, BudgetWithSpent{
			ID:        b.ID.String(),
			Category:  b.Category,
			Limit:     b.Limit.InexactFloat64(),
			Spent:     spent.InexactFloat64(),
			Period:    string(b.Period),
			StartDate: core.EnsureUTC(b.StartDate).Format(time.RFC3339),
			EndDate:   core.EnsureUTC(b.EndDate).Format(time.RFC3339),
			UserID:    b.UserID,
		})
	}
	return out, nil
}

// SpokenSummary produces the short text the client reads out loud: current
// period spend plus the most pressing budget, if any is off track.
func (e *Evaluator) SpokenSummary(ctx context.Context, userID string, period core.Period, now time.Time) (string, error) {
	now = core.EnsureUTC(now)
	summary, err := e.CurrentSpendSummary(ctx, userID, period, now)
	if err != nil {
		return "", err
	}

	results, err := e.EvaluateAllBudgetGoals(ctx, userID, now, true)
	if err != nil {
		return "", err
	}

	for _, r := range results {
		if r.Status == core.StatusWarning || r.Status == core.StatusOverspent {
			label := AggregateLabel
			if r.Data.Category != nil {
				label = *r.Data.Category
			}
			return fmt.Sprintf("This %s, you spent %.0f. %s is %.0f%% used and %s.",
				period, summary.Spent, label, r.Data.PercentUsed, statusSpoken(r.Status)), nil
		}
	}

	return fmt.Sprintf("This %s, you spent %.0f. All budgets are on track.", period, summary.Spent), nil
}

func statusSpoken(s core.GoalStatus) string {
	switch s {
	case core.StatusOverspent:
		return "overspent"
	case core.StatusWarning:
		return "warning"
	default:
		return "on track"
	}
}
