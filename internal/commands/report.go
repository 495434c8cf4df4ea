package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregated views over the ledger",
	}
	cmd.AddCommand(newReportCategoriesCommand())
	cmd.AddCommand(newReportMonthlyCostCommand())
	return cmd
}

func newReportCategoriesCommand() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Sum transaction amounts per category over a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			start, err := time.Parse(flagDateFormat, from)
			if err != nil {
				return fmt.Errorf("invalid --from date %q: %w", from, err)
			}
			end, err := time.Parse(flagDateFormat, to)
			if err != nil {
				return fmt.Errorf("invalid --to date %q: %w", to, err)
			}
			// Make the end bound inclusive of the whole day.
			end = end.Add(24*time.Hour - time.Nanosecond)

			totals, err := env.ledger.TotalByCategory(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			categories := make([]string, 0, len(totals))
			for c := range totals {
				categories = append(categories, c)
			}
			sort.Strings(categories)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tTOTAL")
			for _, c := range categories {
				fmt.Fprintf(w, "%s\t%s\n", c, totals[c].StringFixed(2))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "period start (YYYY-MM-DD, required)")
	_ = cmd.MarkFlagRequired("from")
	cmd.Flags().StringVar(&to, "to", "", "period end (YYYY-MM-DD, required)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newReportMonthlyCostCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "monthly-cost",
		Short: "Monthly-equivalent cost of all active subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			total, err := env.ledger.TotalMonthlyCost(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s/month\n", total.StringFixed(2), env.cfg.Ledger.DefaultCurrency)
			return nil
		},
	}
}
