package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	OpCreated = "created"
	OpDeleted = "deleted"
)

// TransactionEvent tells the snapshot worker that a transaction changed.
// It carries only the identifiers and the posting date; the worker reloads
// whatever else it needs from the store.
type TransactionEvent struct {
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FamilyID  string    `json:"family_id,omitempty"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(op, id, userID, familyID, date string) *TransactionEvent {
	return &TransactionEvent{
		Op:        op,
		ID:        id,
		UserID:    userID,
		FamilyID:  familyID,
		Date:      date,
		Timestamp: time.Now(),
	}
}

func (e *TransactionEvent) Validate() error {
	if e.Op != OpCreated && e.Op != OpDeleted {
		return fmt.Errorf("unknown op %q", e.Op)
	}
	if e.ID == "" {
		return fmt.Errorf("missing transaction id")
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return fmt.Errorf("bad date %q: %w", e.Date, err)
	}
	return nil
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
