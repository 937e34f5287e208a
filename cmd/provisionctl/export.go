package main

import (
	"github.com/spf13/cobra"

	"github.com/noah-isme/olympiad-admin-api/internal/app"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		userType   string
		schoolName string
		out        string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export accounts as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), root, func(a *app.App) error {
				file, err := a.Export.ExportUsers(cmd.Context(), userType, schoolName)
				if err != nil {
					if appErrors.FromError(err).Status < 500 {
						return withCode(exitValidation, err)
					}
					return withCode(exitStore, err)
				}
				path := out
				if path == "-" {
					path = ""
				} else if path == "" {
					path = file.Name
				}
				return writeOutput(cmd, path, file.Data)
			})
		},
	}
	cmd.Flags().StringVar(&userType, "usertype", "", "student|sales, all types when empty")
	cmd.Flags().StringVar(&schoolName, "schoolname", "", "Only students of this school (case-insensitive)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path, - for stdout (default: generated file name)")
	return cmd
}
