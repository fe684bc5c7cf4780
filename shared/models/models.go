package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "PENDING"
	TransactionApproved TransactionStatus = "APPROVED"
	TransactionBlocked  TransactionStatus = "BLOCKED"
	TransactionFlagged  TransactionStatus = "FLAGGED"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Decision is the closed set of outcomes the decision stage can produce.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReview  Decision = "REVIEW"
	DecisionBlock   Decision = "BLOCK"
)

// ParseDecision accepts exactly the three known decision values.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToUpper(strings.TrimSpace(s))); d {
	case DecisionApprove, DecisionReview, DecisionBlock:
		return d, nil
	}
	return "", fmt.Errorf("unknown decision %q", s)
}

// UnmarshalText rejects decision values outside the closed set.
func (d *Decision) UnmarshalText(text []byte) error {
	parsed, err := ParseDecision(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TransactionStatus maps a decision onto the status the ingestion stage
// records for the screened transaction.
func (d Decision) TransactionStatus() TransactionStatus {
	switch d {
	case DecisionBlock:
		return TransactionBlocked
	case DecisionReview:
		return TransactionFlagged
	default:
		return TransactionApproved
	}
}

type CaseStatus string

const (
	CasePending  CaseStatus = "PENDING"
	CaseApproved CaseStatus = "APPROVED"
	CaseRejected CaseStatus = "REJECTED"
	CaseBlocked  CaseStatus = "BLOCKED"
)

type NotificationChannel string

const (
	ChannelEmail   NotificationChannel = "EMAIL"
	ChannelSMS     NotificationChannel = "SMS"
	ChannelWebhook NotificationChannel = "WEBHOOK"
)

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED"
)

type Transaction struct {
	ID           string            `json:"transactionId"`
	UserID       string            `json:"userId"`
	Amount       decimal.Decimal   `json:"amount"`
	Location     string            `json:"location"`
	MerchantType string            `json:"merchantType"`
	Status       TransactionStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// RiskProfile is the latest scoring snapshot for a user. One row per user.
type RiskProfile struct {
	UserID               string    `json:"userId"`
	RiskScore            float64   `json:"riskScore"`
	RiskLevel            RiskLevel `json:"riskLevel"`
	RecentFraudCount     int       `json:"recentFraudCount"`
	TransactionFrequency int       `json:"transactionFrequency"`
	TopRiskFactor        string    `json:"topRiskFactor,omitempty"`
	LastUpdated          time.Time `json:"lastUpdated"`
}

type FraudCase struct {
	CaseID        string     `json:"caseId"`
	TransactionID string     `json:"transactionId"`
	UserID        string     `json:"userId"`
	RiskScore     float64    `json:"riskScore"`
	Decision      Decision   `json:"decision"`
	Status        CaseStatus `json:"status"`
	FlagReason    *string    `json:"flagReason"`
	ReviewedBy    *string    `json:"reviewedBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type Notification struct {
	ID            int64               `json:"id"`
	TransactionID string              `json:"transactionId"`
	UserID        string              `json:"userId"`
	Channel       NotificationChannel `json:"channel"`
	Message       string              `json:"message"`
	Status        NotificationStatus  `json:"status"`
	SentAt        time.Time           `json:"sentAt"`
}

// AggregatedMetric is one day of decision statistics produced by the rollup.
type AggregatedMetric struct {
	MetricDate        time.Time `json:"metricDate"`
	TotalTransactions int64     `json:"totalTransactions"`
	FraudCount        int64     `json:"fraudCount"`
	ReviewCount       int64     `json:"reviewCount"`
	BlockCount        int64     `json:"blockCount"`
	FraudRate         float64   `json:"fraudRate"`
	AvgRiskScore      float64   `json:"avgRiskScore"`
	CreatedAt         time.Time `json:"createdAt"`
}
