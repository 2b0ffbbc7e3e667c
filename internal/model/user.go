package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a ledger account holder. CreditLimit is the protected
// attribute: every committed change to it is audited, and it may be
// null only until the sweeper's null repair has run.
type User struct {
	CreatedAt   time.Time
	FirstName   string
	LastName    string
	Email       string
	CreditLimit decimal.NullDecimal
	ID          int64
}

// UserName is the narrow projection the sweeper's name normalization
// step works over.
type UserName struct {
	FirstName string
	LastName  string
	ID        int64
}

// LimitsEqual reports whether two optional credit limits carry the
// same value. Two nulls are equal; a null never equals a value.
func LimitsEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	if !a.Valid {
		return true
	}
	return a.Decimal.Equal(b.Decimal)
}
