package amqp

import (
	"encoding/json"
	"time"
)

// LedgerEventMessage is a lightweight pointer to a ledger record.
// It carries only identifiers; the worker refetches the full record
// from the database before exporting.
type LedgerEventMessage struct {
	Kind      string    `json:"kind"`
	RecordID  string    `json:"record_id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(kind, recordID, ownerID string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:      kind,
		RecordID:  recordID,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
