package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pbryant/ledgerguard/internal/model"
)

func insertAudit(t *testing.T, store *SQLiteStorage, record *model.AuditRecord) {
	t.Helper()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	if err := tx.InsertAuditRecord(ctx, record); err != nil {
		_ = tx.Rollback()
		t.Fatalf("Failed to insert audit record: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
}

func TestSQLiteTx_InsertAuditRecord(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "Smith", nil)
	changedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	record := &model.AuditRecord{
		UserID:    user.ID,
		OldLimit:  decimal.NullDecimal{},
		NewLimit:  decimal.NullDecimal{Decimal: dec("5000.00"), Valid: true},
		ChangedAt: changedAt,
	}
	insertAudit(t, store, record)

	if record.ID == 0 {
		t.Error("Expected audit record ID to be assigned")
	}

	records, err := store.GetAuditRecords(ctx, user.ID, changedAt.Add(-time.Hour), changedAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to get audit records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 audit record, got %d", len(records))
	}
	if records[0].OldLimit.Valid {
		t.Error("Expected null old limit")
	}
	if !records[0].NewLimit.Valid || !records[0].NewLimit.Decimal.Equal(dec("5000.00")) {
		t.Errorf("Expected new limit 5000.00, got %+v", records[0].NewLimit)
	}
}

func TestSQLiteStorage_GetAuditRecordsTimeRange(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "Smith", nil)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	limits := []string{"100.00", "200.00", "300.00"}
	for i, l := range limits {
		insertAudit(t, store, &model.AuditRecord{
			UserID:    user.ID,
			NewLimit:  decimal.NullDecimal{Decimal: dec(l), Valid: true},
			ChangedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		})
	}

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantLen int
	}{
		{
			name:    "full range",
			start:   base.Add(-time.Hour),
			end:     base.Add(72 * time.Hour),
			wantLen: 3,
		},
		{
			name:    "middle only",
			start:   base.Add(12 * time.Hour),
			end:     base.Add(36 * time.Hour),
			wantLen: 1,
		},
		{
			name:    "nothing",
			start:   base.Add(100 * 24 * time.Hour),
			end:     base.Add(101 * 24 * time.Hour),
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.GetAuditRecords(ctx, user.ID, tt.start, tt.end)
			if err != nil {
				t.Fatalf("Failed to get audit records: %v", err)
			}
			if len(records) != tt.wantLen {
				t.Errorf("Expected %d records, got %d", tt.wantLen, len(records))
			}
			for i := 1; i < len(records); i++ {
				if records[i].ChangedAt.Before(records[i-1].ChangedAt) {
					t.Error("Expected records ordered oldest first")
				}
			}
		})
	}
}

func TestSQLiteStorage_GetAuditRecordsInvalidRange(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	now := time.Now()
	if _, err := store.GetAuditRecords(context.Background(), 1, now, now.Add(-time.Hour)); err == nil {
		t.Error("Expected error for end before start")
	}
}
