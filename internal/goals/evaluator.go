// Package goals implements budget goal evaluation: classifying a budget's
// status against its limit and linear time pacing, and producing the
// notification feeds derived from it.
package goals

import (
	"context"
	"fmt"
	"time"

	"easeabill/internal/core"

	"github.com/shopspring/decimal"
)

// Default notification thresholds, in percent.
const (
	DefaultNotifyPercentUsed    = 80.0
	DefaultNotifyAheadOfPacePct = 10.0
)

// AggregateLabel names the nil-category (all spending) budget in messages.
const AggregateLabel = "Overall"

// Store is the persistence surface the evaluator reads from. Implementations
// must treat the expense window as half-open [start, end) and return budgets
// most-recently-started first.
type Store interface {
	SumExpenses(ctx context.Context, userID string, start, end time.Time, category *string) (decimal.Decimal, error)
	ListBudgets(ctx context.Context, userID string, activeOnly bool, now time.Time) ([]core.Budget, error)
}

// Evaluator computes budget goal results. It is stateless; every method is a
// pure computation over store reads and safe for concurrent use.
type Evaluator struct {
	store Store

	notifyPercentUsed    float64
	notifyAheadOfPacePct float64
}

// Option tunes an Evaluator.
type Option func(*Evaluator)

// WithThresholds overrides the warning thresholds (percent of limit used,
// percent ahead of linear pace).
func WithThresholds(percentUsed, aheadOfPace float64) Option {
	return func(e *Evaluator) {
		e.notifyPercentUsed = percentUsed
		e.notifyAheadOfPacePct = aheadOfPace
	}
}

func NewEvaluator(store Store, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:                store,
		notifyPercentUsed:    DefaultNotifyPercentUsed,
		notifyAheadOfPacePct: DefaultNotifyAheadOfPacePct,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func categoryLabel(b core.Budget) string {
	if b.IsAggregate() {
		return AggregateLabel
	}
	return *b.Category
}

// EvaluateBudgetGoal classifies ONE budget at the given instant.
//
// spent is summed over the budget's own stored [start, end) window (and its
// category, when scoped). Classification, in priority order:
//
//	OVERSPENT  spent > limit (always notify)
//	WARNING    percentUsed >= notifyPercentUsed OR
//	           percentUsed - expectedPercent >= notifyAheadOfPacePct (notify)
//	ON_TRACK   otherwise (no notification)
func (e *Evaluator) EvaluateBudgetGoal(ctx context.Context, userID string, budget core.Budget, now time.Time) (core.BudgetGoalResult, error) {
	now = core.EnsureUTC(now)
	start := core.EnsureUTC(budget.StartDate)
	end := core.EnsureUTC(budget.EndDate)

	spent, err := e.store.SumExpenses(ctx, userID, start, end, budget.Category)
	if err != nil {
		return core.BudgetGoalResult{}, fmt.Errorf("sum expenses for budget %s: %w", budget.ID, err)
	}

	spentF := spent.InexactFloat64()
	limitF := budget.Limit.InexactFloat64()
	remaining := budget.Limit.Sub(spent)

	var percentUsed float64
	if limitF > 0 {
		percentUsed = spentF / limitF * 100.0
	}

	prog := core.ProgressRatio(start, end, now)
	expectedSpent := limitF * prog
	expectedPercent := prog * 100.0
	aheadBy := spentF - expectedSpent
	aheadPercent := percentUsed - expectedPercent

	label := categoryLabel(budget)

	var (
		status       core.GoalStatus
		shouldNotify bool
		msg          string
	)
	switch {
	case spent.GreaterThan(budget.Limit):
		status = core.StatusOverspent
		shouldNotify = true
		msg = fmt.Sprintf("%s: budget exceeded. Remaining %s.", label, remaining.StringFixed(2))
	case percentUsed >= e.notifyPercentUsed || aheadPercent >= e.notifyAheadOfPacePct:
		status = core.StatusWarning
		shouldNotify = true
		msg = fmt.Sprintf("%s: %.0f%% used (%+.0f%% vs pace). Remaining %s.",
			label, percentUsed, aheadPercent, remaining.StringFixed(2))
	default:
		status = core.StatusOnTrack
		msg = fmt.Sprintf("%s: on track (%.0f%% used). Remaining %s.", label, percentUsed, remaining.StringFixed(2))
	}

	return core.BudgetGoalResult{
		GoalType:     core.GoalTypeBudget,
		Status:       status,
		ShouldNotify: shouldNotify,
		Message:      msg,
		Data: core.GoalPayload{
			GoalType: core.GoalTypeBudget,
			BudgetID: budget.ID.String(),
			Category: budget.Category,
			Period:   budget.Period,
			Window: core.Window{
				Start: start.Format(time.RFC3339),
				End:   end.Format(time.RFC3339),
			},
			Spent:                spentF,
			Limit:                limitF,
			Remaining:            remaining.InexactFloat64(),
			PercentUsed:          percentUsed,
			ExpectedSpentByNow:   expectedSpent,
			ExpectedPercentByNow: expectedPercent,
			AheadBy:              aheadBy,
			AheadPercent:         aheadPercent,
		},
	}, nil
}
