// Package main provides the library CLI entry point.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library/internal/app"
	"library/internal/console"
	"library/internal/fact"
	"library/internal/schema"
	"library/internal/seed"
	"library/internal/store"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "library",
		Short: "Library catalog with member borrowing",
		Long: `library keeps a catalog of books, members and loan transactions as a
fact graph, and serves it over HTTP, Telegram and an interactive terminal.

Storage is chosen with STORE_BACKEND (file, badger, clickhouse, memory) or
the --store flag.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("store", "", "Storage backend (file, badger, clickhouse, memory)")
	rootCmd.PersistentFlags().String("path", "", "Fact file for the file backend")
	rootCmd.PersistentFlags().String("badger-dir", "", "Directory for the badger backend")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "library v%s (%s)\n", version, commit)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the Telegram bot",
		RunE:  runServe,
	}
	serveCmd.Flags().String("port", "", "HTTP port")
	serveCmd.Flags().String("seed", "", "Roster applied on first start")
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "shell",
		Short: "Interactive terminal session",
		RunE:  runShell,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "seed [roster.yaml]",
		Short: "Add administrators and members from a YAML roster",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeed,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the stored facts against the schema",
		RunE:  runCheck,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "transactions",
		Short: "Print every loan transaction",
		RunE:  runTransactions,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// flagEnv maps CLI flags onto the environment variables they override.
var flagEnv = map[string]string{
	"store":      "STORE_BACKEND",
	"path":       "STORE_PATH",
	"badger-dir": "BADGER_DIR",
	"port":       "PORT",
	"seed":       "SEED_FILE",
}

// open applies flag overrides to the environment, loads configuration and
// opens the store. Since godotenv never overrides variables that are already
// set, flags win over .env.
func open(cmd *cobra.Command) (*app.App, error) {
	flags := cmd.Flags()
	for name, key := range flagEnv {
		if f := flags.Lookup(name); f != nil && f.Changed {
			os.Setenv(key, f.Value.String())
		}
	}

	cfg, logger, err := app.LoadEnv()
	if err != nil {
		return nil, err
	}
	// Only serve applies the startup roster
	if flags.Lookup("seed") == nil {
		cfg.SeedFile = ""
	}
	return app.NewWithConfig(cmd.Context(), cfg, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := open(cmd)
	if err != nil {
		return err
	}
	return application.Run()
}

func runShell(cmd *cobra.Command, args []string) error {
	application, err := open(cmd)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := console.New(application.Library(), os.Stdin, os.Stdout, application.Logger().Named("console"),
		console.WithPasswordReader(console.TerminalPasswords(os.Stdin, os.Stdout)),
		console.WithColor(term.IsTerminal(int(os.Stdout.Fd()))),
	)
	return c.Run(ctx)
}

func runSeed(cmd *cobra.Command, args []string) error {
	roster, err := seed.LoadFile(args[0])
	if err != nil {
		return err
	}

	application, err := open(cmd)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	res, err := seed.Apply(cmd.Context(), application.Library().Store(), roster)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d administrators and %d members\n", res.Admins, res.Members)
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	application, err := open(cmd)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	lib := application.Library()
	issues := lib.Check()
	out := cmd.OutOrStdout()
	if len(issues) == 0 {
		fmt.Fprintf(out, "OK: %d facts\n", lib.Store().Len())
		return nil
	}

	reported := make(map[schema.ID]bool)
	for _, issue := range issues {
		fmt.Fprintln(out, issue)
		if reported[issue.Subject] {
			continue
		}
		reported[issue.Subject] = true

		var facts []fact.Triple
		lib.Store().View(func(g *store.Graph) { facts = schema.Describe(g, issue.Subject) })
		if err := fact.Write(out, facts); err != nil {
			return err
		}
	}
	return fmt.Errorf("%d schema issues", len(issues))
}

func runTransactions(cmd *cobra.Command, args []string) error {
	application, err := open(cmd)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	return console.RenderTransactions(cmd.OutOrStdout(), application.Library().ListAllTransactions(cmd.Context()))
}
