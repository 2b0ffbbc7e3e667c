package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditRecord captures one committed change to a user's credit limit.
// Records are append-only: they are written by the audit recorder in
// the same transaction as the change and never mutated afterwards.
// Null old/new values represent the absent side of null<->value
// transitions.
type AuditRecord struct {
	ChangedAt time.Time
	OldLimit  decimal.NullDecimal
	NewLimit  decimal.NullDecimal
	ID        int64
	UserID    int64
}
