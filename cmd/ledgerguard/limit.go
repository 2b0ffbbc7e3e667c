package main

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pbryant/ledgerguard/internal/common"
	"github.com/pbryant/ledgerguard/internal/ledger"
)

func limitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limit",
		Short: "Manage credit limits",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <user-id> <amount|null>",
		Short: "Set a user's credit limit",
		Long: `Set a user's credit limit. The change and its audit record commit in
the same transaction; passing "null" clears the limit (the transition
is audited like any other change).`,
		Args: cobra.ExactArgs(2),
		RunE: runLimitSet,
	})

	return cmd
}

func runLimitSet(cmd *cobra.Command, args []string) error {
	userID, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	var newLimit decimal.NullDecimal
	if args[1] != "null" {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		newLimit = decimal.NullDecimal{Decimal: amount, Valid: true}
	}

	store, err := openStorage()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	engine := ledger.NewEngine(store)
	if err := engine.UpdateCreditLimit(cmd.Context(), userID, newLimit); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewUserError(fmt.Sprintf("user %d not found", userID), err)
		}
		return fmt.Errorf("failed to update credit limit: %w", err)
	}

	fmt.Printf("Updated credit limit for user %d\n", userID)
	return nil
}
