package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event kinds routed through the events queue.
const (
	KindTransactionCreated = "transaction.created"
	KindBudgetAlert        = "budget.alert"
	KindReminderDue        = "reminder.due"
)

// Event is the wire envelope. Payloads are kept small: consumers re-fetch
// whatever full records they need from the database.
type Event struct {
	Kind      string          `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// TransactionCreated notifies the mirror worker about a new transaction.
type TransactionCreated struct {
	TransactionID int64 `json:"transaction_id"`
	UserID        int64 `json:"user_id"`
}

// BudgetAlert is emitted when a budget crosses its warning or exceeded
// threshold.
type BudgetAlert struct {
	UserID      int64  `json:"user_id"`
	BudgetID    int64  `json:"budget_id"`
	CategoryID  int64  `json:"category_id"`
	SpentCents  int64  `json:"spent_cents"`
	LimitCents  int64  `json:"limit_cents"`
	PercentUsed int    `json:"percent_used"`
	Status      string `json:"status"`
}

// ReminderDue is emitted for open reminders at or past their due date.
type ReminderDue struct {
	ReminderID int64  `json:"reminder_id"`
	UserID     int64  `json:"user_id"`
	Title      string `json:"title"`
	DueDate    string `json:"due_date"`
}

// NewEvent wraps a payload in the wire envelope.
func NewEvent(kind string, payload any) (*Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return &Event{Kind: kind, Timestamp: time.Now(), Payload: body}, nil
}

// Decode unmarshals the payload into dst, checking the envelope kind first.
func (e *Event) Decode(kind string, dst any) error {
	if e.Kind != kind {
		return fmt.Errorf("event kind %q, expected %q", e.Kind, kind)
	}
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return nil
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
