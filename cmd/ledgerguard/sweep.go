package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pbryant/ledgerguard/internal/ledger"
)

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the consistency sweep",
		Long: `Run the three-step consistency sweep: assign the default credit limit
to users who have none, normalize name capitalization, and report
every transaction exceeding its owner's limit. Each step is
idempotent; a second run right after reports zero repairs.`,
		RunE: runSweep,
	}

	cmd.Flags().String("default-limit", "", "Limit applied by null repair (default: 5000.00)")
	_ = viper.BindPFlag("sweep.default_limit", cmd.Flags().Lookup("default-limit"))

	return cmd
}

func runSweep(cmd *cobra.Command, _ []string) error {
	store, err := openStorage()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	opts := []ledger.SweeperOption{}
	if limitArg := viper.GetString("sweep.default_limit"); limitArg != "" {
		limit, err := parseAmount(limitArg)
		if err != nil {
			return err
		}
		opts = append(opts, ledger.WithDefaultLimit(limit))
	}

	sweeper := ledger.NewSweeper(store, opts...)
	report, err := sweeper.Run(cmd.Context())
	if report != nil {
		fmt.Printf("Null limit repairs: %d\n", report.NullRepairs)
		fmt.Printf("Names normalized:   %d\n", report.NamesNormalized)
		fmt.Printf("Limit violations:   %d\n", len(report.Violations))
		for _, v := range report.Violations {
			fmt.Printf("  user=%d txn=%s amount=%s limit=%s\n",
				v.UserID, v.TransactionID, v.Amount.StringFixed(2), v.CreditLimit.StringFixed(2))
		}
	}
	if err != nil {
		return fmt.Errorf("sweep finished with step failures: %w", err)
	}

	return nil
}
