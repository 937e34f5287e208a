package main

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/olympiad-admin-api/internal/app"
	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/internal/service"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

type provisionOptions struct {
	file     string
	userType string
	schoolID string
	policy   string
	verbose  bool
}

func newProvisionCmd(root *rootOptions) *cobra.Command {
	var opts provisionOptions

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create accounts for every row of a roster CSV",
		Example: "  provisionctl provision --file roster.csv --user-type student --school-id SCH-01\n" +
			"  provisionctl provision --file agents.csv --user-type sales --policy unchecked",
		RunE: func(cmd *cobra.Command, args []string) error {
			userType, ok := models.ParseUserType(opts.userType)
			if !ok {
				return withCode(exitUsage, fmt.Errorf("unsupported --user-type: %s", opts.userType))
			}
			var policy models.DuplicatePolicy
			switch strings.ToLower(opts.policy) {
			case "":
			case string(models.DuplicatePolicyChecked), string(models.DuplicatePolicyUnchecked):
				policy = models.DuplicatePolicy(strings.ToLower(opts.policy))
			default:
				return withCode(exitUsage, fmt.Errorf("unsupported --policy: %s", opts.policy))
			}
			if !strings.EqualFold(filepath.Ext(opts.file), ".csv") {
				return withCode(exitUsage, fmt.Errorf("--file must be a .csv file"))
			}

			return withApp(cmd.Context(), root, func(a *app.App) error {
				return runProvision(cmd, a, opts, userType, policy)
			})
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Roster CSV to provision (required)")
	cmd.Flags().StringVar(&opts.userType, "user-type", string(models.UserTypeStudent), "Default user type: student|sales")
	cmd.Flags().StringVar(&opts.schoolID, "school-id", "", "Default school ID for student rows without one")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "Duplicate policy: checked|unchecked (default from config)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print every row, not only failures")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runProvision(cmd *cobra.Command, a *app.App, opts provisionOptions, userType models.UserType, policy models.DuplicatePolicy) error {
	src, err := os.Open(opts.file)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("open roster: %w", err))
	}
	defer src.Close()

	result, err := a.Provisioning.Provision(cmd.Context(), service.ProvisionRequest{
		Source:          src,
		DefaultUserType: userType,
		DefaultSchoolID: opts.schoolID,
		Policy:          policy,
		Actor:           cliActor(),
	})
	out := cmd.OutOrStdout()
	if result != nil {
		printOutcome(out, result, opts.verbose, a.Config.Provisioning.ArtifactDir)
	}
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Status < 500 {
			return withCode(exitValidation, err)
		}
		return withCode(exitStore, err)
	}
	return nil
}

func printOutcome(out io.Writer, result *service.ProvisionResult, verbose bool, artifactDir string) {
	for _, w := range result.Warnings {
		fmt.Fprintln(out, "warning:", w)
	}
	if outcome := result.Outcome; outcome != nil {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ROW\tSTATUS\tEMAIL\tDETAIL")
		for _, r := range outcome.Results {
			if !verbose && r.Status == models.RowStatusSuccess {
				continue
			}
			email := ""
			if r.Data != nil {
				email = r.Data.Common().Email
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Row, r.Status, email, r.Error)
		}
		_ = tw.Flush()
		fmt.Fprintf(out, "total=%d created=%d duplicates=%d failed=%d\n",
			outcome.Total, outcome.Inserted, outcome.Duplicates, outcome.Errored)
	}
	if result.Artifact != nil {
		fmt.Fprintf(out, "credentials: %s\n", filepath.Join(artifactDir, result.Artifact.Name))
	}
}

func cliActor() service.Actor {
	actor := service.Actor{UserAgent: "provisionctl"}
	if u, err := user.Current(); err == nil {
		actor.UserID = "cli:" + u.Username
	}
	return actor
}
