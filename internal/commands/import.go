package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saldo-app/saldo/internal/importer"
)

func newImportCommand() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "import <statement-file>",
		Short: "Import a bank-statement spreadsheet into an account",
		Long: "Import parses a statement spreadsheet and appends all of its rows " +
			"to the account in one atomic batch. A single unparsable row rejects " +
			"the whole file; every failing row is reported.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			count, err := env.importer().ImportStatement(cmd.Context(), args[0], account)

			var rowsErr *importer.RowsError
			if errors.As(err, &rowsErr) {
				fmt.Fprintf(cmd.ErrOrStderr(), "import aborted, %d rows failed to parse:\n", len(rowsErr.RowErrors))
				for _, re := range rowsErr.RowErrors {
					fmt.Fprintf(cmd.ErrOrStderr(), "  row %d: %s\n", re.Row, re.Message)
				}
				return importer.ErrImportAborted
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d transactions\n", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "target account id (required)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
