package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Aggregate is the derived per-user spending total. It is a
// materialized view over transactions, maintained incrementally by
// the aggregate hook; after any committed insertion Total equals the
// sum of that user's transaction amounts.
type Aggregate struct {
	LastUpdated time.Time
	Total       decimal.Decimal
	UserID      int64
	EventCount  int64
}

// Violation is one row of the sweeper's diagnostic report: a
// transaction whose amount exceeds the owning user's credit limit.
type Violation struct {
	TransactionID string
	Amount        decimal.Decimal
	CreditLimit   decimal.Decimal
	UserID        int64
}
