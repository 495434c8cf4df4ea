package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/saldo-app/saldo/internal/export"
	"github.com/saldo-app/saldo/internal/model"
)

const flagDateFormat = "2006-01-02"

func newTxCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions",
	}
	cmd.AddCommand(newTxAddCommand())
	cmd.AddCommand(newTxRmCommand())
	cmd.AddCommand(newTxListCommand())
	cmd.AddCommand(newTxExportCommand())
	cmd.AddCommand(newTxWatchCommand())
	return cmd
}

func newTxAddCommand() *cobra.Command {
	var (
		account  string
		amount   string
		desc     string
		category string
		notes    string
		date     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction and adjust the account balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			tx := model.Transaction{
				AccountID:   account,
				Amount:      value,
				Description: desc,
				Category:    category,
				Notes:       notes,
			}
			if date != "" {
				tx.Date, err = time.Parse(flagDateFormat, date)
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", date, err)
				}
			}

			id, err := env.ledger.AddTransaction(cmd.Context(), tx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&amount, "amount", "", "signed amount, negative for expenses (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&category, "category", model.CategoryAltro, "category")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().StringVar(&date, "date", "", "event date (YYYY-MM-DD, default today)")
	return cmd
}

func newTxRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <transaction-id>",
		Short: "Delete a transaction and reverse its balance effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			return env.ledger.DeleteTransaction(cmd.Context(), args[0])
		},
	}
}

func newTxListCommand() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			txs, err := env.ledger.Transactions(cmd.Context(), account)
			if err != nil {
				return err
			}
			return printTransactions(cmd, txs)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "restrict to one account")
	return cmd
}

func newTxExportCommand() *cobra.Command {
	var (
		account string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			txs, err := env.ledger.Transactions(cmd.Context(), account)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outPath, err)
				}
				defer f.Close()
				out = f
			}
			return export.WriteTransactions(out, txs)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "restrict to one account")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newTxWatchCommand() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow transactions live, reprinting on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			stream, err := env.ledger.StreamTransactions(cmd.Context(), account)
			if err != nil {
				return err
			}
			defer stream.Close()

			for txs := range stream.Updates() {
				if err := printTransactions(cmd, txs); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return stream.Err()
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "restrict to one account")
	return cmd
}

func printTransactions(cmd *cobra.Command, txs []model.Transaction) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date.Format(flagDateFormat), tx.Amount.StringFixed(2), tx.Category, tx.Description)
	}
	return w.Flush()
}
