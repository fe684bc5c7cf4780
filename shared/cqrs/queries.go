package cqrs

// ---------- Transaction queries ----------

type GetTransactionQuery struct {
	TransactionID string
}

// ListTransactionsQuery fetches a user's transactions, newest first.
type ListTransactionsQuery struct {
	UserID string
}

// ---------- Case queries ----------

type GetCaseQuery struct {
	CaseID string
}

type GetCaseByTransactionQuery struct {
	TransactionID string
}

// ListCasesQuery pages through cases, newest first.
type ListCasesQuery struct {
	Page int
	Size int
}

// ---------- Analytics queries ----------

// DailySummaryQuery returns the last Days rollup rows.
type DailySummaryQuery struct {
	Days int
}
