package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pbryant/ledgerguard/internal/common"
	"github.com/pbryant/ledgerguard/internal/model"
)

func TestSQLiteTx_CreateAndIncrementAggregate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "Smith", decPtr("500.00"))
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}

	// Absent row is reported as not found
	if _, err := tx.GetAggregate(ctx, user.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing aggregate, got %v", err)
	}

	agg := &model.Aggregate{
		UserID:      user.ID,
		Total:       dec("100.00"),
		EventCount:  1,
		LastUpdated: now,
	}
	if err := tx.CreateAggregate(ctx, agg); err != nil {
		t.Fatalf("Failed to create aggregate: %v", err)
	}
	if err := tx.IncrementAggregate(ctx, user.ID, dec("250.50"), now.Add(time.Minute)); err != nil {
		t.Fatalf("Failed to increment aggregate: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	got, err := store.GetAggregate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to get aggregate: %v", err)
	}
	if !got.Total.Equal(dec("350.50")) {
		t.Errorf("Expected total 350.50, got %s", got.Total)
	}
	if got.EventCount != 2 {
		t.Errorf("Expected event count 2, got %d", got.EventCount)
	}
}

func TestSQLiteTx_IncrementAggregateAbsentRow(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.IncrementAggregate(ctx, 42, dec("1.00"), time.Now())
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_ListLimitViolations(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	limited := seedUser(t, store, "Alice", "Smith", decPtr("500.00"))
	unlimited := seedUser(t, store, "Bob", "Jones", nil)
	cat := seedCategory(t, store, "Groceries")

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	over := &model.Transaction{
		ID:         uuid.NewString(),
		UserID:     limited.ID,
		CategoryID: cat.ID,
		Amount:     dec("600.00"),
		OccurredAt: base,
	}
	under := &model.Transaction{
		ID:         uuid.NewString(),
		UserID:     limited.ID,
		CategoryID: cat.ID,
		Amount:     dec("400.00"),
		OccurredAt: base.Add(time.Hour),
	}
	exact := &model.Transaction{
		ID:         uuid.NewString(),
		UserID:     limited.ID,
		CategoryID: cat.ID,
		Amount:     dec("500.00"),
		OccurredAt: base.Add(2 * time.Hour),
	}
	nullLimit := &model.Transaction{
		ID:         uuid.NewString(),
		UserID:     unlimited.ID,
		CategoryID: cat.ID,
		Amount:     dec("10000.00"),
		OccurredAt: base,
	}
	for _, txn := range []*model.Transaction{over, under, exact, nullLimit} {
		insertTxn(t, store, txn)
	}

	violations, err := store.ListLimitViolations(ctx)
	if err != nil {
		t.Fatalf("Failed to list violations: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("Expected exactly 1 violation, got %d", len(violations))
	}

	v := violations[0]
	if v.TransactionID != over.ID {
		t.Errorf("Expected violating transaction %s, got %s", over.ID, v.TransactionID)
	}
	if v.UserID != limited.ID {
		t.Errorf("Expected user %d, got %d", limited.ID, v.UserID)
	}
	if !v.Amount.Equal(dec("600.00")) || !v.CreditLimit.Equal(dec("500.00")) {
		t.Errorf("Expected amount 600.00 over limit 500.00, got %s over %s", v.Amount, v.CreditLimit)
	}
}
