package events

import (
	"time"

	"github.com/sheikh-saqib/fin-ledger/internal/models"
	"github.com/shopspring/decimal"
)

const StatementCreatedTopic = "statement_created"

type StatementCreated struct {
	StatementID string          `json:"statement_id"`
	Type        string          `json:"type"`
	UserID      string          `json:"user_id"`
	SenderID    string          `json:"sender_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func NewStatementCreated(s models.Statement) StatementCreated {
	event := StatementCreated{
		StatementID: s.ID.String(),
		Type:        string(s.Type),
		UserID:      s.UserID.String(),
		Amount:      s.Amount,
		OccurredAt:  s.CreatedAt,
	}
	if s.SenderID != nil {
		event.SenderID = s.SenderID.String()
	}
	return event
}

// PartitionKey keeps the events of one owner in order.
func (e StatementCreated) PartitionKey() string {
	return e.UserID
}
