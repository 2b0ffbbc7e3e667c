package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/pbryant/ledgerguard/internal/service"
)

// DefaultCreditLimit is applied to users whose limit was never set.
var DefaultCreditLimit = decimal.NewFromInt(5000)

// Sweeper is the on-demand batch that normalizes malformed attributes
// and reports invariant violations. It holds no state between runs;
// each Run is a fresh pass over current data, and every step is
// individually idempotent.
type Sweeper struct {
	store        service.Storage
	clock        Clock
	recorder     *AuditRecorder
	defaultLimit decimal.Decimal
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweeperClock overrides the time source.
func WithSweeperClock(clock Clock) SweeperOption {
	return func(s *Sweeper) {
		s.clock = clock
	}
}

// WithDefaultLimit overrides the limit applied by null repair.
func WithDefaultLimit(limit decimal.Decimal) SweeperOption {
	return func(s *Sweeper) {
		s.defaultLimit = limit
	}
}

// NewSweeper creates a sweeper over the given storage.
func NewSweeper(store service.Storage, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:        store,
		clock:        time.Now,
		defaultLimit: DefaultCreditLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recorder = NewAuditRecorder(s.clock)
	return s
}

// Run executes the three sweep steps. Steps are independent: one
// failing does not stop the others, and its failure comes back joined
// into the returned error while the remaining counts stay valid.
// Running the sweep twice in a row repairs nothing on the second pass
// and reports an identical violation list.
func (s *Sweeper) Run(ctx context.Context) (*service.SweepReport, error) {
	report := &service.SweepReport{}
	var errs []error

	if n, err := s.repairNullLimits(ctx); err != nil {
		errs = append(errs, fmt.Errorf("null limit repair: %w", err))
	} else {
		report.NullRepairs = n
	}

	if n, err := s.normalizeNames(ctx); err != nil {
		errs = append(errs, fmt.Errorf("name normalization: %w", err))
	} else {
		report.NamesNormalized = n
	}

	if violations, err := s.store.ListLimitViolations(ctx); err != nil {
		errs = append(errs, fmt.Errorf("violation report: %w", err))
	} else {
		report.Violations = violations
	}

	slog.Info("consistency sweep finished",
		"null_repairs", report.NullRepairs,
		"names_normalized", report.NamesNormalized,
		"violations", len(report.Violations),
		"step_failures", len(errs))

	return report, errors.Join(errs...)
}

// repairNullLimits assigns the default limit to every user whose
// limit is null. Each repair is a protected-attribute change and goes
// through the audit recorder like any other limit update.
func (s *Sweeper) repairNullLimits(ctx context.Context) (int64, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	ids, err := tx.UsersWithNullLimit(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	newLimit := decimal.NullDecimal{Decimal: s.defaultLimit, Valid: true}
	for _, id := range ids {
		if err := tx.SetCreditLimit(ctx, id, newLimit); err != nil {
			return 0, err
		}
		change := LimitChange{UserID: id, New: newLimit}
		if err := s.recorder.BeforeCommit(ctx, tx, change); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit null limit repair: %w", err)
	}

	slog.Info("repaired null credit limits", "count", len(ids), "default", s.defaultLimit)
	return int64(len(ids)), nil
}

// normalizeNames rewrites user name fields to canonical
// capitalization. Already-canonical rows are not written, so
// re-running is a no-op.
func (s *Sweeper) normalizeNames(ctx context.Context) (int64, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	names, err := tx.ListUserNames(ctx)
	if err != nil {
		return 0, err
	}

	var normalized int64
	for _, n := range names {
		first := canonicalCase(n.FirstName)
		last := canonicalCase(n.LastName)
		if first == n.FirstName && last == n.LastName {
			continue
		}
		if err := tx.UpdateUserName(ctx, n.ID, first, last); err != nil {
			return 0, err
		}
		normalized++
	}

	if normalized == 0 {
		return 0, nil
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit name normalization: %w", err)
	}

	slog.Info("normalized user names", "count", normalized)
	return normalized, nil
}

// canonicalCase upper-cases the first rune and lower-cases the rest.
func canonicalCase(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
