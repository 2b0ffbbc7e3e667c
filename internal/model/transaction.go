package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single immutable ledger event. Once written it is
// never updated or deleted; the per-user spending total is derived
// from these rows.
type Transaction struct {
	OccurredAt  time.Time
	ID          string
	Description string
	Amount      decimal.Decimal
	UserID      int64
	CategoryID  int64
}
