package events

import (
	"encoding/json"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/shopspring/decimal"
)

// Topics
const (
	TransactionCreated = "transaction.created"
	RiskScored         = "risk.scored"
	FraudDecisionMade  = "fraud.decision.made"
)

// Event is the envelope stored in the "event" field of every stream entry.
// Key is the partition key (the user id).
type Event struct {
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// TransactionCreatedEvent is published by the ingestion stage once a
// transaction has been admitted and persisted.
type TransactionCreatedEvent struct {
	EventID       string              `json:"eventId"`
	TransactionID string              `json:"transactionId"`
	UserID        string              `json:"userId"`
	Amount        decimal.NullDecimal `json:"amount"`
	Location      string              `json:"location"`
	MerchantType  string              `json:"merchantType"`
	Timestamp     time.Time           `json:"timestamp"`
}

type RiskScoredEvent struct {
	EventID       string           `json:"eventId"`
	TransactionID string           `json:"transactionId"`
	UserID        string           `json:"userId"`
	RiskScore     float64          `json:"riskScore"`
	RiskLevel     models.RiskLevel `json:"riskLevel"`
	ScoredAt      time.Time        `json:"scoredAt"`
}

type FraudDecisionMadeEvent struct {
	EventID       string          `json:"eventId"`
	CaseID        string          `json:"caseId"`
	TransactionID string          `json:"transactionId"`
	UserID        string          `json:"userId"`
	Decision      models.Decision `json:"decision"`
	RiskScore     float64         `json:"riskScore"`
	FlagReason    *string         `json:"flagReason"`
	DecidedAt     time.Time       `json:"decidedAt"`
}

// DeadLetter is written to "<topic>.dlq" when a handler fails on a message.
type DeadLetter struct {
	OriginalTopic string    `json:"originalTopic"`
	Stream        string    `json:"stream"`
	MessageID     string    `json:"messageId"`
	Key           string    `json:"key"`
	Value         string    `json:"value"`
	Error         string    `json:"error"`
	FailedAt      time.Time `json:"failedAt"`
}
