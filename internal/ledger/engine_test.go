package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pbryant/ledgerguard/internal/common"
	"github.com/pbryant/ledgerguard/internal/model"
	"github.com/pbryant/ledgerguard/internal/storage"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testTime }

func newTestStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return store
}

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteStorage) {
	t.Helper()
	store := newTestStore(t)
	return NewEngine(store, WithClock(fixedClock)), store
}

func seedUser(t *testing.T, store *storage.SQLiteStorage, first, last string, limit *decimal.Decimal) *model.User {
	t.Helper()
	user := &model.User{
		FirstName: first,
		LastName:  last,
		CreatedAt: testTime,
	}
	if limit != nil {
		user.CreditLimit = decimal.NullDecimal{Decimal: *limit, Valid: true}
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

func seedCategory(t *testing.T, store *storage.SQLiteStorage, name string) *model.Category {
	t.Helper()
	cat, err := store.CreateCategory(context.Background(), name)
	if err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}
	return cat
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func auditTrail(t *testing.T, store *storage.SQLiteStorage, userID int64) []model.AuditRecord {
	t.Helper()
	records, err := store.GetAuditRecords(context.Background(), userID,
		testTime.Add(-24*time.Hour), testTime.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to get audit records: %v", err)
	}
	return records
}

func TestEngine_UpdateCreditLimitAudited(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "Smith", decPtr("15000.00"))

	if err := engine.UpdateCreditLimit(ctx, user.ID, nullDec("12000.00")); err != nil {
		t.Fatalf("Failed to update credit limit: %v", err)
	}

	records := auditTrail(t, store, user.ID)
	if len(records) != 1 {
		t.Fatalf("Expected exactly 1 audit record, got %d", len(records))
	}
	if !records[0].OldLimit.Valid || !records[0].OldLimit.Decimal.Equal(dec("15000.00")) {
		t.Errorf("Expected old limit 15000.00, got %+v", records[0].OldLimit)
	}
	if !records[0].NewLimit.Valid || !records[0].NewLimit.Decimal.Equal(dec("12000.00")) {
		t.Errorf("Expected new limit 12000.00, got %+v", records[0].NewLimit)
	}
	if !records[0].ChangedAt.Equal(testTime) {
		t.Errorf("Expected change time %v, got %v", testTime, records[0].ChangedAt)
	}
}

func TestEngine_UpdateCreditLimitUnchangedNotAudited(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "Smith", decPtr("15000.00"))

	if err := engine.UpdateCreditLimit(ctx, user.ID, nullDec("12000.00")); err != nil {
		t.Fatalf("Failed to update credit limit: %v", err)
	}
	// Re-applying the same value changes nothing and must not audit
	if err := engine.UpdateCreditLimit(ctx, user.ID, nullDec("12000.00")); err != nil {
		t.Fatalf("Failed to re-apply credit limit: %v", err)
	}

	records := auditTrail(t, store, user.ID)
	if len(records) != 1 {
		t.Errorf("Expected exactly 1 audit record after no-op update, got %d", len(records))
	}
}

func TestEngine_UpdateCreditLimitNullTransitions(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "Smith", nil)

	// null -> value
	if err := engine.UpdateCreditLimit(ctx, user.ID, nullDec("1000.00")); err != nil {
		t.Fatalf("Failed null->value update: %v", err)
	}
	// value -> null
	if err := engine.UpdateCreditLimit(ctx, user.ID, decimal.NullDecimal{}); err != nil {
		t.Fatalf("Failed value->null update: %v", err)
	}

	records := auditTrail(t, store, user.ID)
	if len(records) != 2 {
		t.Fatalf("Expected 2 audit records, got %d", len(records))
	}
	if records[0].OldLimit.Valid {
		t.Error("Expected first record old limit to be null")
	}
	if records[1].NewLimit.Valid {
		t.Error("Expected second record new limit to be null")
	}
}

func TestEngine_UpdateCreditLimitUnknownUser(t *testing.T) {
	engine, _ := newTestEngine(t)

	err := engine.UpdateCreditLimit(context.Background(), 9999, nullDec("100.00"))
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestEngine_RecordTransactionCreatesAggregate(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "Smith", decPtr("500.00"))
	cat := seedCategory(t, store, "Groceries")

	amounts := []string{"100.00", "250.50", "75.00"}
	for i, a := range amounts {
		txn := &model.Transaction{
			UserID:     user.ID,
			CategoryID: cat.ID,
			Amount:     dec(a),
			OccurredAt: testTime.Add(time.Duration(i) * time.Hour),
		}
		if err := engine.RecordTransaction(ctx, txn); err != nil {
			t.Fatalf("Failed to record transaction %d: %v", i, err)
		}
		if txn.ID == "" {
			t.Error("Expected transaction ID to be generated")
		}
	}

	agg, err := store.GetAggregate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to get aggregate: %v", err)
	}
	if !agg.Total.Equal(dec("425.50")) {
		t.Errorf("Expected total 425.50, got %s", agg.Total)
	}
	if agg.EventCount != 3 {
		t.Errorf("Expected event count 3, got %d", agg.EventCount)
	}

	// Invariant: total equals the exact sum over the event log
	txns, err := store.ListTransactionsByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	sum := decimal.Zero
	for _, txn := range txns {
		sum = sum.Add(txn.Amount)
	}
	if !agg.Total.Equal(sum) {
		t.Errorf("Aggregate %s diverged from event sum %s", agg.Total, sum)
	}
}

func TestEngine_RecordTransactionRejectedLeavesNoTrace(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "Smith", decPtr("500.00"))
	seedCategory(t, store, "Groceries")

	txn := &model.Transaction{
		UserID:     user.ID,
		CategoryID: 9999, // unknown category
		Amount:     dec("10.00"),
		OccurredAt: testTime,
	}
	err := engine.RecordTransaction(ctx, txn)
	if !errors.Is(err, common.ErrConstraint) {
		t.Fatalf("Expected ErrConstraint, got %v", err)
	}

	// Neither the event nor any aggregate may have persisted
	if _, err := store.GetTransaction(ctx, txn.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected no persisted transaction, got %v", err)
	}
	if _, err := store.GetAggregate(ctx, user.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected no persisted aggregate, got %v", err)
	}
}

func TestEngine_RecordTransactionInvalidAmounts(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "Smith", decPtr("500.00"))
	cat := seedCategory(t, store, "Groceries")

	tests := []struct {
		name   string
		amount string
	}{
		{name: "negative", amount: "-0.01"},
		{name: "sub-cent precision", amount: "9.999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := &model.Transaction{
				UserID:     user.ID,
				CategoryID: cat.ID,
				Amount:     dec(tt.amount),
				OccurredAt: testTime,
			}
			err := engine.RecordTransaction(ctx, txn)
			if !errors.Is(err, common.ErrConstraint) {
				t.Errorf("Expected ErrConstraint, got %v", err)
			}
		})
	}
}

func TestEngine_RecordTransactionZeroAmountAllowed(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "Smith", decPtr("500.00"))
	cat := seedCategory(t, store, "Groceries")

	txn := &model.Transaction{
		UserID:     user.ID,
		CategoryID: cat.ID,
		Amount:     dec("0.00"),
		OccurredAt: testTime,
	}
	if err := engine.RecordTransaction(ctx, txn); err != nil {
		t.Fatalf("Expected zero amount to be accepted, got %v", err)
	}
}
