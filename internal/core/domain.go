package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

const (
	StatusOnTrack   GoalStatus = "ON_TRACK"
	StatusWarning   GoalStatus = "WARNING"
	StatusOverspent GoalStatus = "OVERSPENT"
)

// GoalTypeBudget tags budget-goal evaluation results and their persisted
// notification records.
const GoalTypeBudget = "BUDGET"

type (
	// Period is a budget/reporting window granularity.
	Period string

	// GoalStatus classifies a budget goal evaluation.
	GoalStatus string

	// Expense is a single spend record owned by a user.
	Expense struct {
		ID          uuid.UUID
		UserID      string
		Title       string
		Amount      decimal.Decimal
		Category    string
		Date        time.Time
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Budget is a spending limit over an explicit [Start, End) window.
	// A nil Category means an aggregate budget covering all spending.
	Budget struct {
		ID        uuid.UUID
		UserID    string
		Category  *string
		Limit     decimal.Decimal
		Period    Period
		StartDate time.Time
		EndDate   time.Time
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// User profile. Location and MonthlyIncome drive the cohort comparison;
	// BudgetGoal drives per-category budget generation at onboarding.
	User struct {
		ID            string
		Username      string
		PasswordHash  string
		Location      *string
		Latitude      *float64
		Longitude     *float64
		MonthlyIncome *decimal.Decimal
		BudgetGoal    *decimal.Decimal
		IsOnboarded   bool
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// Token is a persisted bearer token.
	Token struct {
		Token     string
		UserID    string
		ExpiresAt time.Time
		CreatedAt time.Time
	}

	// BudgetStatus is a persisted goal-evaluation notification record.
	BudgetStatus struct {
		ID           uuid.UUID
		UserID       string
		GoalType     string
		Status       GoalStatus
		ShouldNotify bool
		Message      string
		Data         GoalPayload
		Timestamp    time.Time
	}

	// Window is a half-open [Start, End) time range rendered as ISO-8601.
	Window struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}

	// GoalPayload carries the numeric detail of one budget goal evaluation.
	GoalPayload struct {
		GoalType             string  `json:"goalType"`
		BudgetID             string  `json:"budgetId"`
		Category             *string `json:"category"`
		Period               Period  `json:"period"`
		Window               Window  `json:"window"`
		Spent                float64 `json:"spent"`
		Limit                float64 `json:"limit"`
		Remaining            float64 `json:"remaining"`
		PercentUsed          float64 `json:"percentUsed"`
		ExpectedSpentByNow   float64 `json:"expectedSpentByNow"`
		ExpectedPercentByNow float64 `json:"expectedPercentByNow"`
		AheadBy              float64 `json:"aheadBy"`
		AheadPercent         float64 `json:"aheadPercent"`
	}

	// BudgetGoalResult is the outcome of evaluating one budget at one instant.
	// Produced fresh on every evaluation; never persisted by the evaluator
	// itself.
	BudgetGoalResult struct {
		GoalType     string      `json:"goalType"`
		Status       GoalStatus  `json:"status"`
		ShouldNotify bool        `json:"shouldNotify"`
		Message      string      `json:"message"`
		Data         GoalPayload `json:"data"`
	}
)

var (
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrInvalidWindow    = errors.New("end date must be after start date")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyCategory    = errors.New("empty category")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrNonPositiveLimit = errors.New("limit must be positive")
)

// ParsePeriod validates a period token.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case Weekly, Monthly, Yearly:
		return Period(s), nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Validate checks an expense before persistence.
func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Validate checks a budget before persistence.
func (b Budget) Validate() error {
	if b.Category != nil && strings.TrimSpace(*b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.Limit.IsPositive() {
		return ErrNonPositiveLimit
	}
	if _, err := ParsePeriod(string(b.Period)); err != nil {
		return err
	}
	if !b.EndDate.After(b.StartDate) {
		return ErrInvalidWindow
	}
	return nil
}

// IsAggregate reports whether the budget covers all categories.
func (b Budget) IsAggregate() bool {
	return b.Category == nil
}

// ActiveAt reports whether t falls inside the budget's [start, end) window.
func (b Budget) ActiveAt(t time.Time) bool {
	t = EnsureUTC(t)
	return !b.StartDate.After(t) && b.EndDate.After(t)
}

// Impacts reports whether an expense in the given category counts against
// this budget. Aggregate budgets are impacted by every category.
func (b Budget) Impacts(category string) bool {
	if b.IsAggregate() {
		return true
	}
	return *b.Category == category
}
