package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/five82/cargodash/internal/app"
	"github.com/five82/cargodash/internal/cargo"
	"github.com/five82/cargodash/internal/config"
)

var (
	bold    = color.New(color.Bold)
	faint   = color.New(color.Faint)
	success = color.New(color.FgGreen, color.Bold)
	failure = color.New(color.FgRed, color.Bold)
)

func withEnv(opts *rootOptions, fn func(env *app.Env) error) error {
	env, err := app.Setup(opts.configPath)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "import {items|containers} FILE",
		Short:     "Upload a CSV of items or containers",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(cargo.ImportItems), string(cargo.ImportContainers)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := cargo.ImportKind(args[0])
			if kind != cargo.ImportItems && kind != cargo.ImportContainers {
				return fmt.Errorf("unknown import kind %q (want items or containers)", args[0])
			}
			path, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			return withEnv(opts, func(env *app.Env) error {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open %s: %w", path, err)
				}
				defer f.Close()

				resp, err := env.Client.Import(cmd.Context(), kind, path, f)
				if err != nil {
					return err
				}
				printImport(cmd.OutOrStdout(), kind, filepath.Base(path), resp)
				if !resp.Success {
					return fmt.Errorf("import of %s rejected", filepath.Base(path))
				}
				return nil
			})
		},
	}
}

func printImport(w io.Writer, kind cargo.ImportKind, name string, resp cargo.ImportResponse) {
	status := success.Sprint("ok")
	if !resp.Success {
		status = failure.Sprint("failed")
	}
	fmt.Fprintf(w, "%s %s: %d %s imported from %s\n", bold.Sprint("import"), status, resp.Imported(), kind, name)
	if resp.Detail != "" {
		fmt.Fprintln(w, faint.Sprint(resp.Detail))
	}
	if len(resp.Errors) == 0 {
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(bold.Sprint("ROW"), bold.Sprint("ERROR"))
	for _, e := range resp.Errors {
		tbl.AddRow(e.RowText(), e.Message)
	}
	fmt.Fprintln(w, tbl)
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the current arrangement as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(opts, func(env *app.Env) error {
				path := env.Config.ExportPath(cargo.ExportFilename)
				if output != "" {
					expanded, err := config.ExpandPath(output)
					if err != nil {
						return err
					}
					path = expanded
				}
				n, err := cargo.SaveArrangement(cmd.Context(), env.Client, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d bytes to %s\n", success.Sprint("exported"), n, path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default <export_dir>/"+cargo.ExportFilename+")")
	return cmd
}

func newPingCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the cargo API answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(opts, func(env *app.Env) error {
				start := time.Now()
				msg, err := env.Client.Ping(cmd.Context())
				if err != nil {
					return err
				}
				elapsed := time.Since(start).Round(time.Millisecond)

				tbl := uitable.New()
				tbl.Separator = "  "
				tbl.AddRow(bold.Sprint("API"), env.Client.BaseURL())
				tbl.AddRow(bold.Sprint("STATUS"), success.Sprint("reachable"))
				tbl.AddRow(bold.Sprint("LATENCY"), elapsed.String())
				if msg != "" {
					tbl.AddRow(bold.Sprint("MESSAGE"), msg)
				}
				fmt.Fprintln(cmd.OutOrStdout(), tbl)
				return nil
			})
		},
	}
}
