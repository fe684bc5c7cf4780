package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionView is the read-optimised projection of a transaction, cached
// in Redis by the ingestion stage.
type TransactionView struct {
	ID           string            `json:"transactionId"`
	UserID       string            `json:"userId"`
	Amount       decimal.Decimal   `json:"amount"`
	Location     string            `json:"location"`
	MerchantType string            `json:"merchantType"`
	Status       TransactionStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

func (t *Transaction) View() *TransactionView {
	return &TransactionView{
		ID:           t.ID,
		UserID:       t.UserID,
		Amount:       t.Amount,
		Location:     t.Location,
		MerchantType: t.MerchantType,
		Status:       t.Status,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// CasePage is one page of fraud cases, newest first.
type CasePage struct {
	Cases         []FraudCase `json:"content"`
	Page          int         `json:"page"`
	Size          int         `json:"size"`
	TotalElements int64       `json:"totalElements"`
	TotalPages    int         `json:"totalPages"`
}
