package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"easeabill/internal/amqp"
	"easeabill/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeReader struct {
	expenses map[uuid.UUID]core.Expense
}

func (f *fakeReader) GetExpense(_ context.Context, id uuid.UUID) (core.Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return core.Expense{}, errors.New("not found")
	}
	return e, nil
}

type fakeExporter struct {
	appended []core.Expense
	err      error
}

func (f *fakeExporter) Append(_ context.Context, e core.Expense) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, e)
	return nil
}

type recordingNotifier struct {
	delivered []*amqp.BudgetAlertMessage
}

func (r *recordingNotifier) Notify(_ context.Context, msg *amqp.BudgetAlertMessage) error {
	r.delivered = append(r.delivered, msg)
	return nil
}

func TestHandleSyncMessage(t *testing.T) {
	id := uuid.New()
	reader := &fakeReader{expenses: map[uuid.UUID]core.Expense{
		id: {
			ID:       id,
			UserID:   "user-1",
			Title:    "Groceries",
			Amount:   decimal.NewFromInt(42),
			Category: "Grocery",
			Date:     time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC),
		},
	}}
	exporter := &fakeExporter{}
	w := New(nil, reader, exporter, nil)

	msg := &amqp.ExpenseSyncMessage{ExpenseID: id, UserID: "user-1"}
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}
	if len(exporter.appended) != 1 {
		t.Fatalf("got %d exported rows, want 1", len(exporter.appended))
	}
	if exporter.appended[0].Title != "Groceries" {
		t.Errorf("exported expense = %+v", exporter.appended[0])
	}
}

func TestHandleSyncMessageUnknownExpense(t *testing.T) {
	w := New(nil, &fakeReader{expenses: map[uuid.UUID]core.Expense{}}, &fakeExporter{}, nil)

	msg := &amqp.ExpenseSyncMessage{ExpenseID: uuid.New()}
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("HandleSyncMessage() should fail when the expense is missing")
	}
}

func TestHandleSyncMessageExportFailure(t *testing.T) {
	id := uuid.New()
	reader := &fakeReader{expenses: map[uuid.UUID]core.Expense{id: {ID: id}}}
	boom := errors.New("sheets unavailable")
	w := New(nil, reader, &fakeExporter{err: boom}, nil)

	msg := &amqp.ExpenseSyncMessage{ExpenseID: id}
	if err := w.HandleSyncMessage(context.Background(), msg); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped export error", err)
	}
}

func TestHandleSyncMessageNoExporter(t *testing.T) {
	w := New(nil, &fakeReader{}, nil, nil)

	msg := &amqp.ExpenseSyncMessage{ExpenseID: uuid.New()}
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Errorf("HandleSyncMessage() without exporter should drop the message, got %v", err)
	}
}

func TestHandleBudgetAlert(t *testing.T) {
	notifier := &recordingNotifier{}
	w := New(nil, nil, nil, notifier)

	msg := amqp.NewBudgetAlertMessage("user-1", core.StatusOverspent,
		"Grocery: budget exceeded. Remaining -10.00.", core.GoalPayload{})
	if err := w.HandleBudgetAlert(context.Background(), msg); err != nil {
		t.Fatalf("HandleBudgetAlert() error = %v", err)
	}
	if len(notifier.delivered) != 1 {
		t.Fatalf("got %d delivered alerts, want 1", len(notifier.delivered))
	}
}
