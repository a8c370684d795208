// Package worker consumes queue messages: expense sync messages are mirrored
// to the export spreadsheet, budget alerts are delivered to the user.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"easeabill/internal/amqp"
	"easeabill/internal/core"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ExpenseReader fetches the full expense a sync message refers to.
type ExpenseReader interface {
	GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error)
}

// Exporter appends an expense row to the export spreadsheet.
type Exporter interface {
	Append(ctx context.Context, e core.Expense) error
}

// Notifier delivers a budget alert to the user. The default logs it; a push
// gateway can be swapped in.
type Notifier interface {
	Notify(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// Consumer is the queue surface the worker runs on.
type Consumer interface {
	ConsumeExpenseSync(ctx context.Context, handler func(*amqp.ExpenseSyncMessage) error) error
	ConsumeBudgetAlerts(ctx context.Context, handler func(*amqp.BudgetAlertMessage) error) error
}

type Worker struct {
	consumer Consumer
	storage  ExpenseReader
	exporter Exporter
	notifier Notifier
}

func New(consumer Consumer, storage ExpenseReader, exporter Exporter, notifier Notifier) *Worker {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Worker{
		consumer: consumer,
		storage:  storage,
		exporter: exporter,
		notifier: notifier,
	}
}

// Run consumes both queues until ctx is cancelled. It returns the first
// consumer error other than context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.consumer.ConsumeExpenseSync(ctx, func(msg *amqp.ExpenseSyncMessage) error {
			return w.HandleSyncMessage(ctx, msg)
		})
	})
	g.Go(func() error {
		return w.consumer.ConsumeBudgetAlerts(ctx, func(msg *amqp.BudgetAlertMessage) error {
			return w.HandleBudgetAlert(ctx, msg)
		})
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// HandleSyncMessage mirrors one expense to the export spreadsheet.
func (w *Worker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"expenseId", msg.ExpenseID,
		"userId", msg.UserID)

	if w.exporter == nil {
		slog.WarnContext(ctx, "No exporter configured, dropping sync message",
			"expenseId", msg.ExpenseID)
		return nil
	}

	expense, err := w.storage.GetExpense(ctx, msg.ExpenseID)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := w.exporter.Append(ctx, expense); err != nil {
		return fmt.Errorf("export expense: %w", err)
	}
	return nil
}

// HandleBudgetAlert delivers one budget alert.
func (w *Worker) HandleBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	if err := w.notifier.Notify(ctx, msg); err != nil {
		return fmt.Errorf("deliver alert: %w", err)
	}
	return nil
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	slog.InfoContext(ctx, "Budget alert",
		"userId", msg.UserID,
		"status", msg.Status,
		"message", msg.Message)
	return nil
}
