package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/saldo-app/saldo/internal/model"
)

func newSubsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subs",
		Short: "Manage recurring subscriptions",
	}
	cmd.AddCommand(newSubsListCommand())
	cmd.AddCommand(newSubsAddCommand())
	cmd.AddCommand(newSubsDeactivateCommand())
	cmd.AddCommand(newSubsReactivateCommand())
	cmd.AddCommand(newSubsRmCommand())
	cmd.AddCommand(newSubsExpiringCommand())
	cmd.AddCommand(newSubsRenewDueCommand())
	return cmd
}

func newSubsListCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions by next renewal date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			subs, err := env.ledger.Subscriptions(cmd.Context(), !all)
			if err != nil {
				return err
			}
			return printSubscriptions(cmd, subs)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include deactivated subscriptions")
	return cmd
}

func newSubsAddCommand() *cobra.Command {
	var (
		account   string
		name      string
		amount    string
		frequency string
		category  string
		start     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			charge, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			freq, err := model.ParseFrequency(frequency)
			if err != nil {
				return err
			}
			startDate := time.Now().Truncate(24 * time.Hour)
			if start != "" {
				startDate, err = time.Parse(flagDateFormat, start)
				if err != nil {
					return fmt.Errorf("invalid start date %q: %w", start, err)
				}
			}

			id, err := env.ledger.CreateSubscription(cmd.Context(), model.Subscription{
				AccountID: account,
				Name:      name,
				Amount:    charge,
				Frequency: freq,
				Category:  category,
				StartDate: startDate,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&name, "name", "", "subscription name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&amount, "amount", "", "charge per renewal, positive (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&frequency, "frequency", string(model.FrequencyMonthly), "MONTHLY, QUARTERLY, SEMIANNUAL or ANNUAL")
	cmd.Flags().StringVar(&category, "category", "", "category (default Abbonamenti)")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD, default today)")
	return cmd
}

func newSubsDeactivateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <subscription-id>",
		Short: "Deactivate a subscription, keeping its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			return env.ledger.DeactivateSubscription(cmd.Context(), args[0])
		},
	}
}

func newSubsReactivateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reactivate <subscription-id>",
		Short: "Reactivate a deactivated subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			return env.ledger.ReactivateSubscription(cmd.Context(), args[0])
		},
	}
}

func newSubsRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <subscription-id>",
		Short: "Delete a subscription permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			return env.ledger.DeleteSubscription(cmd.Context(), args[0])
		},
	}
}

func newSubsExpiringCommand() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "List active subscriptions renewing soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			subs, err := env.ledger.ExpiringSubscriptions(cmd.Context(), days)
			if err != nil {
				return err
			}
			return printSubscriptions(cmd, subs)
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "renewal window in days")
	return cmd
}

func newSubsRenewDueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "renew-due",
		Short: "Charge every subscription whose renewal date has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			count, err := env.renewals().ProcessDue(cmd.Context())
			if count > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "processed %d renewals\n", count)
			}
			return err
		},
	}
}

func printSubscriptions(cmd *cobra.Command, subs []model.Subscription) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAMOUNT\tFREQUENCY\tNEXT RENEWAL\tACTIVE")
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
			s.ID, s.Name, s.Amount.StringFixed(2), s.Frequency,
			s.NextRenewalDate.Format(flagDateFormat), s.IsActive)
	}
	return w.Flush()
}
