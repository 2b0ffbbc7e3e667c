package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbryant/ledgerguard/internal/common"
	"github.com/pbryant/ledgerguard/internal/ledger"
	"github.com/pbryant/ledgerguard/internal/model"
)

func recordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <user-id> <category> <amount>",
		Short: "Record a ledger transaction",
		Long: `Append one transaction to the ledger. The user's spending total is
updated in the same unit of work: a rejected insert leaves no trace.`,
		Args: cobra.ExactArgs(3),
		RunE: runRecord,
	}

	cmd.Flags().String("description", "", "Free-text description")
	cmd.Flags().String("occurred-at", "", "Occurrence time (RFC 3339, default: now)")

	return cmd
}

func runRecord(cmd *cobra.Command, args []string) error {
	userID, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	amount, err := parseAmount(args[2])
	if err != nil {
		return err
	}

	description, _ := cmd.Flags().GetString("description")
	occurredArg, _ := cmd.Flags().GetString("occurred-at")

	occurredAt := time.Now()
	if occurredArg != "" {
		occurredAt, err = time.Parse(time.RFC3339, occurredArg)
		if err != nil {
			return fmt.Errorf("invalid occurred-at %q: %w", occurredArg, err)
		}
	}

	store, err := openStorage()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()

	category, err := store.GetCategoryByName(ctx, args[1])
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(
			fmt.Sprintf("unknown category %q; create it first with 'ledgerguard categories add'", args[1]), err)
	}
	if err != nil {
		return fmt.Errorf("failed to look up category: %w", err)
	}

	txn := &model.Transaction{
		UserID:      userID,
		CategoryID:  category.ID,
		Amount:      amount,
		Description: description,
		OccurredAt:  occurredAt,
	}

	engine := ledger.NewEngine(store)
	if err := engine.RecordTransaction(ctx, txn); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	fmt.Printf("Recorded transaction %s for user %d: %s\n", txn.ID, userID, amount.StringFixed(2))
	return nil
}
