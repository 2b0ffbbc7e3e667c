// Package ledger implements the incremental consistency engine: the
// write paths that keep the audit trail and the derived spending
// totals synchronized with the ledger, and the batch sweeper that
// repairs data-quality invariants.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pbryant/ledgerguard/internal/model"
	"github.com/pbryant/ledgerguard/internal/service"
)

// Clock supplies the current time for audit and aggregate timestamps.
// Injected so tests can run against deterministic time.
type Clock func() time.Time

// Write is a triggering mutation about to be committed. Hooks switch
// on the concrete type to decide whether they care.
type Write interface {
	writeKind() string
}

// LimitChange is an update to a user's credit limit, carrying the
// pre- and post-image of the protected attribute.
type LimitChange struct {
	Old    decimal.NullDecimal
	New    decimal.NullDecimal
	UserID int64
}

func (LimitChange) writeKind() string { return "limit_change" }

// EventInsert is a newly appended ledger event.
type EventInsert struct {
	Event *model.Transaction
}

func (EventInsert) writeKind() string { return "event_insert" }

// Hook runs derived-state maintenance inside the same unit of work as
// the triggering write. A hook error aborts the whole transaction:
// the write and its side effects commit together or not at all.
type Hook interface {
	Name() string
	BeforeCommit(ctx context.Context, tx service.Tx, w Write) error
}
