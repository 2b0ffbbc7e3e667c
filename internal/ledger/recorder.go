package ledger

import (
	"context"
	"fmt"

	"github.com/pbryant/ledgerguard/internal/model"
	"github.com/pbryant/ledgerguard/internal/service"
)

// AuditRecorder appends one immutable audit row for every limit change
// it observes. It writes nothing when the value is unchanged, and it
// never touches existing rows. A failed append fails the enclosing
// update: an unaudited limit change must not commit.
type AuditRecorder struct {
	clock Clock
}

// NewAuditRecorder creates an audit recorder using the given clock.
func NewAuditRecorder(clock Clock) *AuditRecorder {
	return &AuditRecorder{clock: clock}
}

// Name identifies the hook in logs.
func (r *AuditRecorder) Name() string { return "audit_recorder" }

// BeforeCommit records the limit change if the pre- and post-images
// differ. Null-to-value and value-to-null transitions count as
// changes.
func (r *AuditRecorder) BeforeCommit(ctx context.Context, tx service.Tx, w Write) error {
	change, ok := w.(LimitChange)
	if !ok {
		return nil
	}

	if model.LimitsEqual(change.Old, change.New) {
		return nil
	}

	record := &model.AuditRecord{
		UserID:    change.UserID,
		OldLimit:  change.Old,
		NewLimit:  change.New,
		ChangedAt: r.clock(),
	}
	if err := tx.InsertAuditRecord(ctx, record); err != nil {
		return fmt.Errorf("audit recorder: %w", err)
	}

	return nil
}
