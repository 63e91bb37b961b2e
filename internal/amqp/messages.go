package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// OperationChangedMessage announces that a bank operation was written.
// It carries only identifiers; consumers reload the account's operations
// from the API before recomputing anything, so a stale message is harmless.
type OperationChangedMessage struct {
	AccountID   int64     `json:"accountId"`
	OperationID int64     `json:"operationId"`
	Action      string    `json:"action"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewOperationChangedMessage(accountID, operationID int64, action string) *OperationChangedMessage {
	return &OperationChangedMessage{
		AccountID:   accountID,
		OperationID: operationID,
		Action:      action,
		Timestamp:   time.Now(),
	}
}

func (m *OperationChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func OperationChangedMessageFromJSON(data []byte) (*OperationChangedMessage, error) {
	var msg OperationChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.AccountID == 0 {
		return nil, fmt.Errorf("operation changed message without account id")
	}
	return &msg, nil
}
