package amqp

import (
	"testing"
	"time"

	"easeabill/internal/core"

	"github.com/google/uuid"
)

func TestNewExpenseSyncMessage(t *testing.T) {
	id := uuid.New()

	msg := NewExpenseSyncMessage(id, "user-1")

	if msg.ExpenseID != id {
		t.Errorf("NewExpenseSyncMessage() ExpenseID = %v, want %v", msg.ExpenseID, id)
	}
	if msg.UserID != "user-1" {
		t.Errorf("NewExpenseSyncMessage() UserID = %v, want user-1", msg.UserID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewExpenseSyncMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewExpenseSyncMessage() Timestamp should be recent")
	}
}

func TestExpenseSyncMessage_JSON(t *testing.T) {
	msg := &ExpenseSyncMessage{
		ExpenseID: uuid.New(),
		UserID:    "user-1",
		Timestamp: time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC),
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ExpenseSyncMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ExpenseSyncMessageFromJSON() error = %v", err)
	}

	if parsed.ExpenseID != msg.ExpenseID {
		t.Errorf("Parsed ExpenseID = %v, want %v", parsed.ExpenseID, msg.ExpenseID)
	}
	if parsed.UserID != msg.UserID {
		t.Errorf("Parsed UserID = %v, want %v", parsed.UserID, msg.UserID)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestExpenseSyncMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"expenseId": 42}`)

	if _, err := ExpenseSyncMessageFromJSON(invalidJSON); err == nil {
		t.Error("ExpenseSyncMessageFromJSON() should fail with invalid JSON")
	}
}

func TestBudgetAlertMessage_JSON(t *testing.T) {
	msg := NewBudgetAlertMessage("user-1", core.StatusOverspent,
		"Grocery: budget exceeded. Remaining -12.50.",
		core.GoalPayload{GoalType: core.GoalTypeBudget, PercentUsed: 104.2})

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := BudgetAlertMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("BudgetAlertMessageFromJSON() error = %v", err)
	}

	if parsed.Status != core.StatusOverspent {
		t.Errorf("Parsed Status = %v, want %v", parsed.Status, core.StatusOverspent)
	}
	if parsed.Message != msg.Message {
		t.Errorf("Parsed Message = %q, want %q", parsed.Message, msg.Message)
	}
	if parsed.Payload.PercentUsed != msg.Payload.PercentUsed {
		t.Errorf("Parsed PercentUsed = %v, want %v", parsed.Payload.PercentUsed, msg.Payload.PercentUsed)
	}
}
