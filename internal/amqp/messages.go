package amqp

import (
	"encoding/json"
	"time"

	"budget/internal/core"
)

// PaymentRecordedMessage announces a debt payment whose mirrored expense may
// still be missing. The worker reloads the ledger row by MirrorKey.
type PaymentRecordedMessage struct {
	MirrorKey string    `json:"mirror_key"`
	DebtID    string    `json:"debt_id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPaymentRecordedMessage(p core.DebtPayment) *PaymentRecordedMessage {
	return &PaymentRecordedMessage{
		MirrorKey: p.MirrorKey,
		DebtID:    p.DebtID,
		OwnerID:   p.OwnerID,
		Timestamp: time.Now(),
	}
}

func (m *PaymentRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PaymentRecordedMessageFromJSON(data []byte) (*PaymentRecordedMessage, error) {
	var msg PaymentRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
