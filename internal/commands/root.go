// Package commands wires the CLI. Services are constructed here at startup
// and injected by interface; nothing in the tree is a singleton.
package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/saldo-app/saldo/internal/auth"
	"github.com/saldo-app/saldo/internal/buildinfo"
	"github.com/saldo-app/saldo/internal/config"
	"github.com/saldo-app/saldo/internal/importer"
	"github.com/saldo-app/saldo/internal/ledger"
	"github.com/saldo-app/saldo/internal/logger"
	"github.com/saldo-app/saldo/internal/renewal"
	"github.com/saldo-app/saldo/internal/statement"
	"github.com/saldo-app/saldo/internal/store"
	"github.com/saldo-app/saldo/internal/store/firestoredb"
	"github.com/saldo-app/saldo/internal/store/memory"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "saldo",
		Short:   "Personal finance ledger with statement import",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "saldo.yaml", "path to the configuration file")

	rootCmd.AddCommand(newAccountsCommand())
	rootCmd.AddCommand(newTxCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newSubsCommand())
	rootCmd.AddCommand(newReportCommand())

	return rootCmd
}

// env holds the constructed service graph for one command invocation.
type env struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  store.Store
	ledger *ledger.Service
}

func setup(cmd *cobra.Command) (*env, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Pretty)

	var st store.Store
	switch cfg.Store.Backend {
	case config.BackendMemory:
		st = memory.New()
	case config.BackendFirestore:
		if cfg.Store.ProjectID == "" {
			return nil, fmt.Errorf("store.project_id is required for the firestore backend")
		}
		st, err = firestoredb.Open(cmd.Context(), cfg.Store.ProjectID, cfg.Store.CredentialsFile)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	provider := auth.NewStatic(cfg.Auth.UserID)
	return &env{
		cfg:    cfg,
		log:    log,
		store:  st,
		ledger: ledger.New(st, provider, log),
	}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn().Err(err).Msg("closing store")
	}
}

func (e *env) importer() *importer.Importer {
	return importer.New(statement.NewParser(), e.ledger, e.log)
}

func (e *env) renewals() *renewal.Processor {
	return renewal.New(e.ledger, e.log)
}
