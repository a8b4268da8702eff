package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

var ErrInvalidMessage = errors.New("invalid import batch message")

// ImportBatchMessage carries transactions fetched from a bank aggregator for
// one user.
type ImportBatchMessage struct {
	UserID       string             `json:"userId"`
	Transactions []core.Transaction `json:"transactions"`
	Timestamp    time.Time          `json:"timestamp"`
}

func NewImportBatchMessage(userID string, txs []core.Transaction) *ImportBatchMessage {
	return &ImportBatchMessage{
		UserID:       userID,
		Transactions: txs,
		Timestamp:    time.Now(),
	}
}

func (m *ImportBatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportBatchMessageFromJSON decodes a message and rejects one without a user.
func ImportBatchMessageFromJSON(data []byte) (*ImportBatchMessage, error) {
	var msg ImportBatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId", ErrInvalidMessage)
	}
	return &msg, nil
}
