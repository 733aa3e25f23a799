package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/trackscope/internal/usecase"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Find corrupt and failed-crawl results and optionally remove them",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		actionName, _ := cmd.Flags().GetString("action")
		dest, _ := cmd.Flags().GetString("dest")

		action, err := usecase.ParseCleanupAction(actionName)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.stores(ctx)
		if err != nil {
			return err
		}
		if dest == "" {
			dest = a.cfg.Storage.QuarantineDir
		}

		report, err := usecase.NewArtifactMaintenance(s.results, s.mover, a.logger, a.metrics).Clean(ctx, profile, action, dest)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, issue := range report.Issues {
			fmt.Fprintf(out, "%-12s %-10s %s (%s)\n", issue.Kind, issue.Ref.Profile, issue.Ref.Domain, issue.Reason)
		}
		fmt.Fprintf(out, "checked=%d valid=%d issues=%d moved=%d deleted=%d\n",
			report.Checked, report.Valid, len(report.Issues), report.Moved, report.Deleted)
		return nil
	},
}

func init() {
	validateCmd.Flags().String("profile", "", "only check results of this profile")
	validateCmd.Flags().String("action", "report", "what to do with bad results: report, move or delete")
	validateCmd.Flags().String("dest", "", "destination for --action move (default: storage.quarantine_dir)")
}
