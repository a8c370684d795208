package amqp

import (
	"encoding/json"
	"time"

	"easeabill/internal/core"

	"github.com/google/uuid"
)

// ExpenseSyncMessage asks the worker to mirror one expense to the export
// spreadsheet. It carries only identifiers; the worker fetches the full
// record from the database.
type ExpenseSyncMessage struct {
	ExpenseID uuid.UUID `json:"expenseId"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(expenseID uuid.UUID, userID string) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		ExpenseID: expenseID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// BudgetAlertMessage carries one notifiable budget evaluation to the worker
// for delivery.
type BudgetAlertMessage struct {
	UserID    string           `json:"userId"`
	Status    core.GoalStatus  `json:"status"`
	Message   string           `json:"message"`
	Payload   core.GoalPayload `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewBudgetAlertMessage(userID string, status core.GoalStatus, message string, payload core.GoalPayload) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		UserID:    userID,
		Status:    status,
		Message:   message,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
