package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"easeabill/internal/core"
)

// ErrNoBudgetGoal means the user has not set a monthly budget goal yet.
var ErrNoBudgetGoal = errors.New("user has no budget goal set")

// BudgetStore is the persistence surface for budget generation.
type BudgetStore interface {
	GetUserByID(ctx context.Context, id string) (*core.User, error)
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
}

// BudgetGenerator splits a user's monthly budget goal into per-category
// budgets for the current month.
type BudgetGenerator struct {
	store BudgetStore
	now   func() time.Time
}

func NewBudgetGenerator(store BudgetStore) *BudgetGenerator {
	return &BudgetGenerator{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Generate creates one monthly budget per category in stable category order.
// It is called at onboarding, after the user sets their budget goal.
func (g *BudgetGenerator) Generate(ctx context.Context, userID string) ([]core.Budget, error) {
	user, err := g.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("lookup user: %w", ErrNoBudgetGoal)
	}
	if user.BudgetGoal == nil || !user.BudgetGoal.IsPositive() {
		return nil, ErrNoBudgetGoal
	}

	start, end, err := core.WindowForPeriod(core.Monthly, g.now())
	if err != nil {
		return nil, err
	}

	categories := make([]string, 0, len(core.BudgetProportions))
	for category := range core.BudgetProportions {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	budgets := make([]core.Budget, 0, len(categories))
	for _, category := range categories {
		category := category
		limit := user.BudgetGoal.Mul(core.BudgetProportions[category]).Round(2)
		b, err := g.store.CreateBudget(ctx, core.Budget{
			UserID:    userID,
			Category:  &category,
			Limit:     limit,
			Period:    core.Monthly,
			StartDate: start,
			EndDate:   end,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s budget: %w", category, err)
		}
		budgets = append(budgets, b)
	}
	return budgets, nil
}
