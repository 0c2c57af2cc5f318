package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"timetracker/internal/core"
)

// EntryChangedMessage announces a mutation. It carries only the id; the
// consumer reads the current state of the entry from the store.
type EntryChangedMessage struct {
	MessageID string            `json:"message_id"`
	EntryID   string            `json:"entry_id"`
	Action    core.ChangeAction `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewEntryChangedMessage creates a message stamped with a fresh id and the current time.
func NewEntryChangedMessage(action core.ChangeAction, entryID string) *EntryChangedMessage {
	return &EntryChangedMessage{
		MessageID: uuid.NewString(),
		EntryID:   entryID,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

// Validate rejects messages a consumer cannot act on.
func (m *EntryChangedMessage) Validate() error {
	if m.EntryID == "" {
		return errors.New("missing entry_id")
	}
	if !m.Action.Valid() {
		return fmt.Errorf("unknown action %q", m.Action)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *EntryChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryChangedMessageFromJSON decodes and validates a message body.
func EntryChangedMessageFromJSON(data []byte) (*EntryChangedMessage, error) {
	var msg EntryChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
