package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/saldo-app/saldo/internal/model"
)

func newAccountsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountsListCommand())
	cmd.AddCommand(newAccountsAddCommand())
	cmd.AddCommand(newAccountsRmCommand())
	return cmd
}

func newAccountsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			accounts, err := env.ledger.Accounts(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE\tCURRENCY\tIBAN")
			for _, a := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					a.ID, a.Name, a.Type, a.Balance.StringFixed(2), a.Currency, a.IBAN)
			}
			return w.Flush()
		},
	}
}

func newAccountsAddCommand() *cobra.Command {
	var (
		name     string
		accType  string
		iban     string
		balance  string
		currency string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			initial, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("invalid balance %q: %w", balance, err)
			}
			if currency == "" {
				currency = env.cfg.Ledger.DefaultCurrency
			}

			id, err := env.ledger.CreateAccount(cmd.Context(), model.Account{
				Name:     name,
				Type:     model.AccountType(accType),
				Balance:  initial,
				Currency: currency,
				IBAN:     iban,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&accType, "type", string(model.AccountTypePrimaryBank), "account type: primary-bank, card-wallet or other")
	cmd.Flags().StringVar(&iban, "iban", "", "account IBAN")
	cmd.Flags().StringVar(&balance, "balance", "0", "initial balance")
	cmd.Flags().StringVar(&currency, "currency", "", "currency code")
	return cmd
}

func newAccountsRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <account-id>",
		Short: "Delete an account permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			return env.ledger.DeleteAccount(cmd.Context(), args[0])
		},
	}
}
