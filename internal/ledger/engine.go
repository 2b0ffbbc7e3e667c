package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pbryant/ledgerguard/internal/common"
	"github.com/pbryant/ledgerguard/internal/model"
	"github.com/pbryant/ledgerguard/internal/service"
)

// Engine owns the synchronous write paths. Every entity mutation or
// event insertion runs its hooks inside the same storage transaction
// as the triggering write; a hook failure rolls the whole unit of
// work back. Lock contention is retried a bounded number of times
// before surfacing as a failed write.
type Engine struct {
	store service.Storage
	clock Clock
	hooks []Hook
	retry service.RetryOptions
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithRetryOptions overrides the contention retry policy.
func WithRetryOptions(opts service.RetryOptions) Option {
	return func(e *Engine) {
		e.retry = opts
	}
}

// NewEngine creates an engine with the audit and aggregate hooks
// wired in.
func NewEngine(store service.Storage, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		clock: time.Now,
		retry: service.RetryOptions{MaxAttempts: 3},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.hooks = []Hook{
		NewAuditRecorder(e.clock),
		NewAggregateMaintainer(e.clock),
	}
	return e
}

// UpdateCreditLimit changes a user's credit limit. The audit hook
// runs in the same transaction: the new limit and its audit record
// commit together or not at all.
func (e *Engine) UpdateCreditLimit(ctx context.Context, userID int64, newLimit decimal.NullDecimal) error {
	return common.WithRetry(ctx, func() error {
		return e.updateCreditLimitOnce(ctx, userID, newLimit)
	}, e.retry)
}

func (e *Engine) updateCreditLimitOnce(ctx context.Context, userID int64, newLimit decimal.NullDecimal) error {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	user, err := tx.GetUserForUpdate(ctx, userID)
	if err != nil {
		return err
	}

	if err := tx.SetCreditLimit(ctx, userID, newLimit); err != nil {
		return err
	}

	if err := e.runHooks(ctx, tx, LimitChange{UserID: userID, Old: user.CreditLimit, New: newLimit}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit limit update: %w", err)
	}

	slog.Debug("updated credit limit", "user_id", userID, "changed", !model.LimitsEqual(user.CreditLimit, newLimit))
	return nil
}

// RecordTransaction appends one ledger event. The aggregate hook runs
// in the same transaction: a reader either sees the event and the
// updated total, or neither. An empty event ID gets a generated one.
func (e *Engine) RecordTransaction(ctx context.Context, txn *model.Transaction) error {
	if txn != nil && txn.ID == "" {
		txn.ID = uuid.NewString()
	}

	return common.WithRetry(ctx, func() error {
		return e.recordTransactionOnce(ctx, txn)
	}, e.retry)
}

func (e *Engine) recordTransactionOnce(ctx context.Context, txn *model.Transaction) error {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.InsertTransaction(ctx, txn); err != nil {
		return err
	}

	if err := e.runHooks(ctx, tx, EventInsert{Event: txn}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction %s: %w", txn.ID, err)
	}

	return nil
}

func (e *Engine) runHooks(ctx context.Context, tx service.Tx, w Write) error {
	for _, hook := range e.hooks {
		if err := hook.BeforeCommit(ctx, tx, w); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}
