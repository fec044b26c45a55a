package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ward-resolver/internal/config"
	"github.com/ward-resolver/internal/db"
	"github.com/ward-resolver/internal/engine"
	import_pkg "github.com/ward-resolver/internal/import"
	"github.com/ward-resolver/internal/logging"
	"github.com/ward-resolver/internal/resilience"
)

// app carries the state shared by all subcommands
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	// Create root command
	rootCmd := &cobra.Command{
		Use:           "wardctl",
		Short:         "Ward resolver administration",
		Long:          `Manage the ward reference store and resolve addresses from the command line`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	// Add subcommands
	rootCmd.AddCommand(a.createPingCmd())
	rootCmd.AddCommand(a.createMigrateCmd())
	rootCmd.AddCommand(a.createIngestCmd())
	rootCmd.AddCommand(a.createClearCmd())
	rootCmd.AddCommand(a.createResolveCmd())

	return rootCmd
}

func (a *app) load() error {
	if err := config.LoadEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = logging.NewWithWriter(os.Stderr, "wardctl", cfg.Log.Level, "console")
	return nil
}

func (a *app) connect(ctx context.Context) (*db.Connection, error) {
	conn, err := db.NewConnection(ctx, a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// createPingCmd creates a command to test database connectivity
func (a *app) createPingCmd() *cobra.Command {
	var city string

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			out := cmd.OutOrStdout()
			success(out, "Database connection successful")

			city := a.cfg.NormalizeCity(city)
			wards, mohallas, err := db.NewStore(conn.DB).Counts(ctx, city)
			if err != nil {
				warn(out, "reference tables unavailable (run wardctl migrate): %v", err)
				return nil
			}
			info(out, "%s: %d wards, %d mohallas", city, wards, mohallas)
			return nil
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city to report (defaults to the configured city)")
	return cmd
}

func (a *app) createMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables, indexes and search functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.Migrate(ctx); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func (a *app) createIngestCmd() *cobra.Command {
	var (
		city       string
		sheet      string
		headerRows int
		replace    bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [filename]",
		Short: "Ingest a ward table (CSV or XLSX)",
		Long: `Ingest a ward table with the columns ward number, ward name and mohallas.
A row with a numeric ward number starts a new ward; each line of the mohalla
cell of the form "<serial> <name>" adds a mohalla to the current ward.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			rows, err := import_pkg.ReadTable(args[0], import_pkg.SourceOptions{Sheet: sheet, HeaderRows: headerRows})
			if err != nil {
				return err
			}
			wards, stats := import_pkg.ParseTable(rows)
			printParseStats(out, stats)
			if len(wards) == 0 {
				return fmt.Errorf("no wards found in %s", args[0])
			}
			if dryRun {
				info(out, "dry run, nothing written")
				return nil
			}

			ctx := cmd.Context()
			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			importer := import_pkg.NewImporter(conn.DB, a.logger)
			summary, err := importer.Import(ctx, a.cfg.NormalizeCity(city), wards, import_pkg.Options{
				Replace:  replace,
				Progress: cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to ingest %s: %w", args[0], err)
			}

			if replace {
				info(out, "cleared %d wards and %d mohallas", summary.Cleared.Wards, summary.Cleared.Mohallas)
			}
			success(out, "%s: %d wards, %d mohallas written (%d mohallas already present)",
				summary.City, summary.Wards, summary.Mohallas, summary.SkippedMohallas)
			return nil
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city the table belongs to (defaults to the configured city)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "XLSX worksheet (defaults to the first sheet)")
	cmd.Flags().IntVar(&headerRows, "header-rows", 1, "leading rows to skip")
	cmd.Flags().BoolVar(&replace, "replace", false, "clear the city before writing, in the same transaction")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without writing")
	return cmd
}

func (a *app) createClearCmd() *cobra.Command {
	var (
		city string
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all wards and mohallas of a city",
		RunE: func(cmd *cobra.Command, args []string) error {
			city := a.cfg.NormalizeCity(city)
			if !yes {
				return fmt.Errorf("refusing to clear %s without --yes", city)
			}

			ctx := cmd.Context()
			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			cleared, err := import_pkg.NewImporter(conn.DB, a.logger).ClearCity(ctx, city)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%s: removed %d wards and %d mohallas", city, cleared.Wards, cleared.Mohallas)
			return nil
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city to clear (defaults to the configured city)")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func (a *app) createResolveCmd() *cobra.Command {
	var (
		city   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [address]",
		Short: "Resolve an address to a ward",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			store := resilience.NewGuardedStore(db.NewStore(conn.DB), resilience.NewBreakers(a.cfg.Breaker, a.logger, nil))
			resolver := engine.NewResolver(store, engine.Options{
				Policy:      a.cfg.Resolution.Policy,
				Concurrency: a.cfg.Resolution.Concurrency,
				Logger:      &a.logger,
			})

			address := strings.Join(args, " ")
			city := a.cfg.NormalizeCity(city)
			res, err := resolver.Resolve(ctx, engine.Address{Text: address, City: city})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), address, city, res, asJSON)
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city to search (defaults to the configured city)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
