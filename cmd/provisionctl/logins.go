package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/olympiad-admin-api/internal/app"
)

func newLoginsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logins",
		Short: "Inspect generated credential files",
	}
	cmd.AddCommand(newLoginsListCmd(root), newLoginsGetCmd(root))
	return cmd
}

func newLoginsListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List credential files, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), root, func(a *app.App) error {
				files, err := a.Provisioning.ListLedgers()
				if err != nil {
					return withCode(exitStore, err)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tCREATED\tSIZE")
				for _, f := range files {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", f.Name, f.Created.Format(time.RFC3339), f.Size)
				}
				return tw.Flush()
			})
		},
	}
}

func newLoginsGetCmd(root *rootOptions) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Copy a credential file, optionally rendered as a PDF login sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return withApp(cmd.Context(), root, func(a *app.App) error {
				var data []byte
				switch strings.ToLower(format) {
				case "csv":
					file, _, err := a.Provisioning.OpenLedger(name)
					if err != nil {
						return withCode(exitValidation, err)
					}
					defer file.Close()
					data, err = io.ReadAll(file)
					if err != nil {
						return withCode(exitStore, err)
					}
				case "pdf":
					var err error
					data, err = a.Provisioning.RenderLedgerPDF(name)
					if err != nil {
						return withCode(exitValidation, err)
					}
				default:
					return withCode(exitUsage, fmt.Errorf("unsupported --format: %s", format))
				}
				a.Provisioning.RecordLedgerDownload(cmd.Context(), cliActor(), name)
				return writeOutput(cmd, out, data)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv|pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this path instead of stdout")
	return cmd
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", path, len(data))
	return nil
}
