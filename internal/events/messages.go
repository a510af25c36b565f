package events

import (
	"encoding/json"
	"time"
)

// Mutation actions carried on the audit queue.
const (
	ActionCreated  = "created"
	ActionReplaced = "replaced"
	ActionPatched  = "patched"
	ActionDeleted  = "deleted"
)

// ExpenseEvent records one mutation of an expense record. The payload
// is deliberately small; consumers fetch the full record if they need it.
type ExpenseEvent struct {
	Action    string    `json:"action"`
	ExpenseID int64     `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(action string, expenseID int64) *ExpenseEvent {
	return &ExpenseEvent{
		Action:    action,
		ExpenseID: expenseID,
		Timestamp: time.Now(),
	}
}

func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var event ExpenseEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
