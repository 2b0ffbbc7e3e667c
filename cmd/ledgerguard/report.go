package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Read-only reports over the ledger",
	}

	cmd.AddCommand(reportAuditCmd())
	cmd.AddCommand(reportTotalCmd())
	cmd.AddCommand(reportViolationsCmd())

	return cmd
}

func reportAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <user-id>",
		Short: "Show a user's credit limit audit trail",
		Args:  cobra.ExactArgs(1),
		RunE:  runReportAudit,
	}

	cmd.Flags().String("start", "", "Range start (RFC 3339, default: beginning of time)")
	cmd.Flags().String("end", "", "Range end (RFC 3339, default: now)")

	return cmd
}

func runReportAudit(cmd *cobra.Command, args []string) error {
	userID, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	startArg, _ := cmd.Flags().GetString("start")
	endArg, _ := cmd.Flags().GetString("end")

	start := time.Unix(0, 0)
	if startArg != "" {
		start, err = time.Parse(time.RFC3339, startArg)
		if err != nil {
			return fmt.Errorf("invalid start %q: %w", startArg, err)
		}
	}

	end := time.Now()
	if endArg != "" {
		end, err = time.Parse(time.RFC3339, endArg)
		if err != nil {
			return fmt.Errorf("invalid end %q: %w", endArg, err)
		}
	}

	store, err := openStorage()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.GetAuditRecords(cmd.Context(), userID, start, end)
	if err != nil {
		return fmt.Errorf("failed to get audit records: %w", err)
	}

	for _, record := range records {
		old := "null"
		if record.OldLimit.Valid {
			old = record.OldLimit.Decimal.StringFixed(2)
		}
		newVal := "null"
		if record.NewLimit.Valid {
			newVal = record.NewLimit.Decimal.StringFixed(2)
		}
		fmt.Printf("%s\t%s -> %s\n", record.ChangedAt.Format(time.RFC3339), old, newVal)
	}

	return nil
}

func reportTotalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "total <user-id>",
		Short: "Show a user's derived spending total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			store, err := openStorage()
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			agg, err := store.GetAggregate(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to get aggregate: %w", err)
			}

			fmt.Printf("user=%d total=%s events=%d last_updated=%s\n",
				agg.UserID, agg.Total.StringFixed(2), agg.EventCount,
				agg.LastUpdated.Format(time.RFC3339))
			return nil
		},
	}
}

func reportViolationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "violations",
		Short: "List transactions exceeding their owner's credit limit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage()
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			violations, err := store.ListLimitViolations(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list violations: %w", err)
			}

			for _, v := range violations {
				fmt.Printf("user=%d txn=%s amount=%s limit=%s\n",
					v.UserID, v.TransactionID, v.Amount.StringFixed(2), v.CreditLimit.StringFixed(2))
			}
			return nil
		},
	}
}
