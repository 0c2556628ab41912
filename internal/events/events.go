package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Publisher is the notification sink for workflow events.
type Publisher interface {
	Publish(topic string, event any) error
}

// Default is the publisher used by the controllers. It is replaced
// with a Kafka publisher at startup when brokers are configured.
var Default Publisher = LogPublisher{}

// Topics for workflow notifications.
const (
	TopicQuotationSubmitted = "quotation_submitted"
	TopicQuotationApproved  = "quotation_approved"
	TopicQuotationRejected  = "quotation_rejected"
	TopicBatchCompleted     = "payment_batch_completed"
)

// QuotationEvent is published on quotation submit, approve and reject.
type QuotationEvent struct {
	QuotationID    uuid.UUID       `json:"quotation_id"`
	ProjectID      uuid.UUID       `json:"project_id"`
	ActorID        uuid.UUID       `json:"actor_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       string          `json:"currency"`
	BudgetExceeded bool            `json:"budget_exceeded,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// BatchEvent is published when a payment batch completes.
type BatchEvent struct {
	BatchID      uuid.UUID       `json:"batch_id"`
	BankName     string          `json:"bank_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaymentCount int             `json:"payment_count"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Publish sends the event to the default publisher. Notifications are
// fire-and-forget, a failing sink must never roll back the workflow,
// so errors are only logged.
func Publish(topic string, event any) {
	if err := Default.Publish(topic, event); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("event publish failed")
	}
}
