package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/cargodash/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "cargodash: %v\n", err)
		return 1
	}
	return 0
}

type rootOptions struct {
	configPath string
	prefsPath  string
	poll       time.Duration
	section    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "cargodash",
		Short: "Terminal dashboard for the cargo stowage API",
		Long: "cargodash is a terminal dashboard for the cargo stowage API.\n\n" +
			"Run without arguments to open the dashboard. The import, export and\n" +
			"ping commands work without a terminal.",
		Example: `
cargodash
cargodash --section waste-management
cargodash import items ./items.csv
cargodash export -o arrangement.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("the dashboard needs a terminal; use import, export or ping for scripted use")
			}
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: opts.configPath,
				PrefsPath:  opts.prefsPath,
				PollEvery:  opts.poll,
				Section:    opts.section,
			})
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/cargodash/config.toml)")
	cmd.Flags().StringVar(&opts.prefsPath, "prefs", "", "preferences file (default ~/.config/cargodash/prefs.toml)")
	cmd.Flags().DurationVar(&opts.poll, "poll", 0, "health probe interval (default from config)")
	cmd.Flags().StringVar(&opts.section, "section", "", "section to open first")

	cmd.AddCommand(
		newImportCommand(opts),
		newExportCommand(opts),
		newPingCommand(opts),
	)
	return cmd
}
