package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/pbryant/ledgerguard/internal/common"
	"github.com/pbryant/ledgerguard/internal/model"
	"github.com/pbryant/ledgerguard/internal/service"
)

// AggregateMaintainer keeps the per-user spending total consistent
// with the event log. Each event insertion either creates the user's
// aggregate row or increments it in SQL; both the existence check and
// the mutation run under the write transaction's lock, so concurrent
// insertions for the same user cannot lose updates. The normal path
// never recomputes from full history.
type AggregateMaintainer struct {
	clock Clock
}

// NewAggregateMaintainer creates an aggregate maintainer using the
// given clock.
func NewAggregateMaintainer(clock Clock) *AggregateMaintainer {
	return &AggregateMaintainer{clock: clock}
}

// Name identifies the hook in logs.
func (m *AggregateMaintainer) Name() string { return "aggregate_maintainer" }

// BeforeCommit applies the create-or-increment upsert for the event's
// user.
func (m *AggregateMaintainer) BeforeCommit(ctx context.Context, tx service.Tx, w Write) error {
	insert, ok := w.(EventInsert)
	if !ok {
		return nil
	}

	now := m.clock()

	_, err := tx.GetAggregate(ctx, insert.Event.UserID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		agg := &model.Aggregate{
			UserID:      insert.Event.UserID,
			Total:       insert.Event.Amount,
			EventCount:  1,
			LastUpdated: now,
		}
		if createErr := tx.CreateAggregate(ctx, agg); createErr != nil {
			return fmt.Errorf("aggregate maintainer: %w", createErr)
		}
	case err != nil:
		return fmt.Errorf("aggregate maintainer: %w", err)
	default:
		if incErr := tx.IncrementAggregate(ctx, insert.Event.UserID, insert.Event.Amount, now); incErr != nil {
			return fmt.Errorf("aggregate maintainer: %w", incErr)
		}
	}

	return nil
}
