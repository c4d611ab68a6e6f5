package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage asks the snapshot worker to pull a fresh dataset from
// Google Sheets. Reason distinguishes manual refreshes from scheduled ones
// in the worker's logs.
type RefreshMessage struct {
	Reason      string    `json:"reason"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

const (
	ReasonManual    = "manual"
	ReasonScheduled = "scheduled"
)

func NewRefreshMessage(reason, requestedBy string) *RefreshMessage {
	return &RefreshMessage{
		Reason:      reason,
		RequestedBy: requestedBy,
		Timestamp:   time.Now(),
	}
}

func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
