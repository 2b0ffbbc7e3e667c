// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pbryant/ledgerguard/internal/model"
)

// Storage defines the contract for our persistence layer. Reads here
// are the surface reporting collaborators consume; all writes that
// need derived-state maintenance go through a Tx so the consistency
// hooks can run inside the same atomic unit of work.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	// Category operations
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	// Read surface for reporting collaborators
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID int64) ([]model.Transaction, error)
	GetAggregate(ctx context.Context, userID int64) (*model.Aggregate, error)
	GetAuditRecords(ctx context.Context, userID int64, start, end time.Time) ([]model.AuditRecord, error)
	ListLimitViolations(ctx context.Context) ([]model.Violation, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is a single atomic unit of work. The engine applies a triggering
// write and its consistency hooks on the same Tx; either everything
// commits or nothing does.
type Tx interface {
	Commit() error
	Rollback() error

	// User writes
	GetUserForUpdate(ctx context.Context, id int64) (*model.User, error)
	SetCreditLimit(ctx context.Context, userID int64, limit decimal.NullDecimal) error
	UsersWithNullLimit(ctx context.Context) ([]int64, error)
	ListUserNames(ctx context.Context) ([]model.UserName, error)
	UpdateUserName(ctx context.Context, userID int64, first, last string) error

	// Event writes
	InsertTransaction(ctx context.Context, txn *model.Transaction) error

	// Audit writes
	InsertAuditRecord(ctx context.Context, record *model.AuditRecord) error

	// Aggregate writes. The existence check and the chosen mutation
	// both run under this transaction's write lock, never as separate
	// round trips.
	GetAggregate(ctx context.Context, userID int64) (*model.Aggregate, error)
	CreateAggregate(ctx context.Context, agg *model.Aggregate) error
	IncrementAggregate(ctx context.Context, userID int64, delta decimal.Decimal, at time.Time) error
}

// SweepReport is the structured result of one consistency sweep.
// Zero NullRepairs means there was nothing to repair; step failures
// are reported through the accompanying error, never through counts.
type SweepReport struct {
	Violations      []model.Violation
	NullRepairs     int64
	NamesNormalized int64
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
