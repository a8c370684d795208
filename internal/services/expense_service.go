package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"easeabill/internal/amqp"
	"easeabill/internal/core"
	"easeabill/internal/goals"
	applog "easeabill/internal/log"
)

// ExpenseStore is the persistence surface the expense service needs beyond
// what the evaluator reads through its own store.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	AddBudgetStatus(ctx context.Context, bs core.BudgetStatus) (core.BudgetStatus, error)
}

// Publisher hands messages to the worker. A nil Publisher disables
// publishing without failing requests.
type Publisher interface {
	PublishExpenseSync(ctx context.Context, msg *amqp.ExpenseSyncMessage) error
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// ExpenseService orchestrates expense writes: persist, re-evaluate impacted
// budgets, record notifications, and publish to the worker.
type ExpenseService struct {
	store     ExpenseStore
	evaluator *goals.Evaluator
	publisher Publisher
	rewriter  goals.MessageRewriter
	log       *applog.StructuredLogger
	now       func() time.Time
}

func NewExpenseService(store ExpenseStore, evaluator *goals.Evaluator, publisher Publisher, rewriter goals.MessageRewriter) *ExpenseService {
	return &ExpenseService{
		store:     store,
		evaluator: evaluator,
		publisher: publisher,
		rewriter:  rewriter,
		log:       applog.NewStructuredLogger(applog.New(applog.Config{Component: applog.ComponentExpense})),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateExpense saves an expense and returns it together with any alerts the
// insert triggered. Evaluation failures and publish failures never fail the
// request; the expense is already saved.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, []goals.Alert, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, nil, err
	}

	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, nil, fmt.Errorf("save expense: %w", err)
	}

	now := s.now()
	alerts, err := s.evaluator.EvaluateOnNewExpense(ctx, saved.UserID, saved, now)
	if err != nil {
		s.log.LogError(ctx, "Failed to evaluate budgets after expense insert", err,
			applog.ComponentGoals, applog.OpEvaluate,
			applog.NewFields().
				WithUser(saved.UserID).
				WithExpense(saved.ID.String(), saved.Category, saved.Amount.InexactFloat64()))
		return saved, nil, nil
	}

	for i := range alerts {
		alerts[i].Message = goals.RewriteOrFallback(ctx, s.rewriter, alerts[i].Message)
		s.recordAndPublish(ctx, saved.UserID, alerts[i], now)
	}

	s.publishSync(ctx, saved)

	return saved, alerts, nil
}

func (s *ExpenseService) recordAndPublish(ctx context.Context, userID string, alert goals.Alert, now time.Time) {
	_, err := s.store.AddBudgetStatus(ctx, core.BudgetStatus{
		UserID:       userID,
		GoalType:     alert.Data.GoalType,
		Status:       alert.Status,
		ShouldNotify: true,
		Message:      alert.Message,
		Data:         alert.Data,
		Timestamp:    now,
	})
	if err != nil {
		s.log.LogError(ctx, "Failed to record budget status", err,
			applog.ComponentStorage, applog.OpCreate,
			applog.NewFields().
				WithUser(userID).
				WithBudget(alert.Data.BudgetID, alert.Data.Category, string(alert.Data.Period)))
	}

	if s.publisher == nil {
		return
	}
	msg := amqp.NewBudgetAlertMessage(userID, alert.Status, alert.Message, alert.Data)
	if err := s.publisher.PublishBudgetAlert(ctx, msg); err != nil {
		s.log.LogError(ctx, "Failed to publish budget alert", err,
			applog.ComponentAMQP, applog.OpSync,
			applog.NewFields().
				WithUser(userID).
				WithBudget(alert.Data.BudgetID, alert.Data.Category, string(alert.Data.Period)))
	}
}

func (s *ExpenseService) publishSync(ctx context.Context, e core.Expense) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Publisher not available, skipping sync message")
		return
	}
	msg := amqp.NewExpenseSyncMessage(e.ID, e.UserID)
	if err := s.publisher.PublishExpenseSync(ctx, msg); err != nil {
		s.log.LogError(ctx, "Failed to publish sync message", err,
			applog.ComponentAMQP, applog.OpSync,
			applog.NewFields().WithExpense(e.ID.String(), e.Category, e.Amount.InexactFloat64()))
	}
}
