package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pbryant/ledgerguard/internal/model"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage ledger users",
	}

	cmd.AddCommand(usersAddCmd())
	cmd.AddCommand(usersListCmd())

	return cmd
}

func usersAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <first-name> <last-name>",
		Short: "Add a new user",
		Args:  cobra.ExactArgs(2),
		RunE:  runUsersAdd,
	}

	cmd.Flags().String("email", "", "User email address")
	cmd.Flags().String("limit", "", "Initial credit limit (left unset when omitted)")

	return cmd
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	limitArg, _ := cmd.Flags().GetString("limit")

	user := &model.User{
		FirstName: args[0],
		LastName:  args[1],
		Email:     email,
		CreatedAt: time.Now(),
	}

	if limitArg != "" {
		limit, err := parseAmount(limitArg)
		if err != nil {
			return err
		}
		user.CreditLimit = decimal.NullDecimal{Decimal: limit, Valid: true}
	}

	store, err := openStorage()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.CreateUser(cmd.Context(), user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user %d: %s %s\n", user.ID, user.FirstName, user.LastName)
	return nil
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage()
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			users, err := store.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			for _, user := range users {
				limit := "unset"
				if user.CreditLimit.Valid {
					limit = user.CreditLimit.Decimal.StringFixed(2)
				}
				fmt.Printf("%d\t%s %s\tlimit=%s\n", user.ID, user.FirstName, user.LastName, limit)
			}
			return nil
		},
	}
}
