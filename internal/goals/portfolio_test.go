package goals

import (
	"context"
	"strings"
	"testing"
	"time"

	"easeabill/internal/core"

	"github.com/shopspring/decimal"
)

func TestEvaluateAllBudgetGoals_PreservesStoreOrder(t *testing.T) {
	grocery := weekBudget(strPtr("Grocery"), 300)
	transport := weekBudget(strPtr("Transportation"), 100)
	store := &fakeStore{
		sums: map[string]decimal.Decimal{
			"Grocery":        decimal.NewFromInt(10),
			"Transportation": decimal.NewFromInt(150),
		},
		budgets: []core.Budget{grocery, transport},
	}
	e := NewEvaluator(store)

	now := time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)
	results, err := e.EvaluateAllBudgetGoals(context.Background(), "user1", now, true)
	if err != nil {
		t.Fatalf("EvaluateAllBudgetGoals() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Data.BudgetID != grocery.ID.String() {
		t.Error("results must come back in store order")
	}
	if results[0].Status != core.StatusOnTrack {
		t.Errorf("grocery status = %s, want ON_TRACK", results[0].Status)
	}
	if results[1].Status != core.StatusOverspent {
		t.Errorf("transportation status = %s, want OVERSPENT", results[1].Status)
	}
}

func TestEvaluateAllBudgetGoals_ActiveFilter(t *testing.T) {
	expired := weekBudget(strPtr("Grocery"), 300)
	expired.StartDate = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	expired.EndDate = time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	store := &fakeStore{
		sums:    map[string]decimal.Decimal{"Grocery": decimal.NewFromInt(10)},
		budgets: []core.Budget{expired},
	}
	e := NewEvaluator(store)
	now := time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)

	active, err := e.EvaluateAllBudgetGoals(context.Background(), "user1", now, true)
	if err != nil {
		t.Fatalf("EvaluateAllBudgetGoals() error = %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active-only evaluation returned %d results for an expired budget", len(active))
	}

	all, err := e.EvaluateAllBudgetGoals(context.Background(), "user1", now, false)
	if err != nil {
		t.Fatalf("EvaluateAllBudgetGoals() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("unfiltered evaluation returned %d results, want 1", len(all))
	}
}

func TestEvaluateOnNewExpense(t *testing.T) {
	now := time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)
	expense := core.Expense{Category: "Grocery", Amount: decimal.NewFromInt(40)}

	t.Run("only impacted and notification-worthy budgets alert", func(t *testing.T) {
		grocery := weekBudget(strPtr("Grocery"), 100)        // 90 spent -> warning
		transport := weekBudget(strPtr("Transportation"), 100) // different category
		quiet := weekBudget(strPtr("Grocery"), 10000)        // impacted but on track

		store := &fakeStore{
			sums: map[string]decimal.Decimal{
				"Grocery":        decimal.NewFromInt(90),
				"Transportation": decimal.NewFromInt(99),
			},
			budgets: []core.Budget{grocery, transport, quiet},
		}
		e := NewEvaluator(store)

		alerts, err := e.EvaluateOnNewExpense(context.Background(), "user1", expense, now)
		if err != nil {
			t.Fatalf("EvaluateOnNewExpense() error = %v", err)
		}
		if len(alerts) != 1 {
			t.Fatalf("got %d alerts, want 1", len(alerts))
		}
		if alerts[0].Type != AlertTypeBudget {
			t.Errorf("alert type = %q", alerts[0].Type)
		}
		if alerts[0].Data.BudgetID != grocery.ID.String() {
			t.Error("alert should come from the impacted grocery budget")
		}
	})

	t.Run("aggregate budget is impacted by any category", func(t *testing.T) {
		aggregate := weekBudget(nil, 100)
		store := &fakeStore{
			sums:    map[string]decimal.Decimal{"": decimal.NewFromInt(95)},
			budgets: []core.Budget{aggregate},
		}
		e := NewEvaluator(store)

		alerts, err := e.EvaluateOnNewExpense(context.Background(), "user1", expense, now)
		if err != nil {
			t.Fatalf("EvaluateOnNewExpense() error = %v", err)
		}
		if len(alerts) != 1 {
			t.Fatalf("got %d alerts, want 1", len(alerts))
		}
		if alerts[0].Status != core.StatusWarning {
			t.Errorf("status = %s, want WARNING", alerts[0].Status)
		}
		if !strings.Contains(alerts[0].Message, AggregateLabel) {
			t.Errorf("aggregate alert message %q should use the %q label", alerts[0].Message, AggregateLabel)
		}
	})

	t.Run("inactive budgets never alert", func(t *testing.T) {
		old := weekBudget(strPtr("Grocery"), 10)
		old.StartDate = now.AddDate(0, -2, 0)
		old.EndDate = now.AddDate(0, -1, 0)

		store := &fakeStore{
			sums:    map[string]decimal.Decimal{"Grocery": decimal.NewFromInt(500)},
			budgets: []core.Budget{old},
		}
		e := NewEvaluator(store)

		alerts, err := e.EvaluateOnNewExpense(context.Background(), "user1", expense, now)
		if err != nil {
			t.Fatalf("EvaluateOnNewExpense() error = %v", err)
		}
		if len(alerts) != 0 {
			t.Errorf("got %d alerts from an expired budget, want 0", len(alerts))
		}
	})
}

func TestCurrentSpendSummary(t *testing.T) {
	store := &fakeStore{sums: map[string]decimal.Decimal{"": decimal.NewFromInt(700)}}
	e := NewEvaluator(store)

	// Feb 15 00:00 is exactly half of February 2026 (28 days).
	now := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	s, err := e.CurrentSpendSummary(context.Background(), "user1", core.Monthly, now)
	if err != nil {
		t.Fatalf("CurrentSpendSummary() error = %v", err)
	}

	if s.Spent != 700 {
		t.Errorf("spent = %v", s.Spent)
	}
	if s.ProgressRatio != 0.5 {
		t.Errorf("progressRatio = %v, want 0.5", s.ProgressRatio)
	}
	if s.Window.Start != "2026-02-01T00:00:00Z" {
		t.Errorf("window start = %s", s.Window.Start)
	}

	if _, err := e.CurrentSpendSummary(context.Background(), "user1", core.Period("hourly"), now); err == nil {
		t.Error("invalid period should fail")
	}
}

func TestSpokenSummary(t *testing.T) {
	now := time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)

	t.Run("all on track", func(t *testing.T) {
		store := &fakeStore{
			sums:    map[string]decimal.Decimal{"": decimal.NewFromInt(120), "Grocery": decimal.NewFromInt(20)},
			budgets: []core.Budget{weekBudget(strPtr("Grocery"), 300)},
		}
		e := NewEvaluator(store)

		text, err := e.SpokenSummary(context.Background(), "user1", core.Monthly, now)
		if err != nil {
			t.Fatalf("SpokenSummary() error = %v", err)
		}
		if !strings.Contains(text, "All budgets are on track") {
			t.Errorf("text = %q", text)
		}
	})

	t.Run("leads with the first off-track budget", func(t *testing.T) {
		store := &fakeStore{
			sums:    map[string]decimal.Decimal{"": decimal.NewFromInt(520), "Grocery": decimal.NewFromInt(400)},
			budgets: []core.Budget{weekBudget(strPtr("Grocery"), 300)},
		}
		e := NewEvaluator(store)

		text, err := e.SpokenSummary(context.Background(), "user1", core.Monthly, now)
		if err != nil {
			t.Fatalf("SpokenSummary() error = %v", err)
		}
		if !strings.Contains(text, "Grocery") || !strings.Contains(text, "overspent") {
			t.Errorf("text = %q", text)
		}
	})
}
