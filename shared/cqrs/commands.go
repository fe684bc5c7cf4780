package cqrs

import "github.com/shopspring/decimal"

// CreateTransactionCommand is an admission request. TransactionID is optional;
// one is generated when it is empty.
type CreateTransactionCommand struct {
	TransactionID string
	UserID        string
	Amount        decimal.Decimal
	Location      string
	MerchantType  string
}

// ReviewCaseCommand is an analyst override of a pending case.
type ReviewCaseCommand struct {
	CaseID     string
	Action     string
	ReviewedBy string
}

// RunRollupCommand aggregates one day of fraud cases.
type RunRollupCommand struct {
	Date string
}
