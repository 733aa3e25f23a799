package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/usecase"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [domain...]",
	Short: "Crawl domains with every selected profile",
	Long: `crawl runs the configured number of visits of each domain's subpages
for every selected profile and stores one result document per pair.
Subpage lists must exist; create them with "trackscope collect".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		domainsFile, _ := cmd.Flags().GetString("domains-file")
		profileNames, _ := cmd.Flags().GetStringSlice("profiles")
		force, _ := cmd.Flags().GetBool("force")
		annotate, _ := cmd.Flags().GetBool("annotate")
		reportFile, _ := cmd.Flags().GetString("report")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		domains, err := loadDomains(args, domainsFile)
		if err != nil {
			return err
		}
		profiles, err := a.profiles(profileNames)
		if err != nil {
			return err
		}
		s, err := a.stores(ctx)
		if err != nil {
			return err
		}

		jobs := usecase.Jobs(domains, profiles)
		for i := range jobs {
			jobs[i].Force = force
		}
		report, runErr := a.scheduler(s, profiles).RunBatch(ctx, jobs)
		printReport(cmd, report)
		if reportFile != "" {
			if err := writeJSON(reportFile, report); err != nil {
				a.logger.Error("Failed to write batch report", zap.Error(err))
			}
		}
		if runErr != nil {
			return runErr
		}

		if annotate {
			ann, _, err := a.annotator(ctx, s.results, false)
			if err != nil {
				return err
			}
			for _, p := range profiles {
				n, err := ann.AnnotateAll(ctx, p.Name)
				if err != nil {
					return err
				}
				a.logger.Info("Annotated results", zap.String("profile", p.Name), zap.Int("documents", n))
			}
		}
		return nil
	},
}

func init() {
	crawlCmd.Flags().StringP("domains-file", "f", "", "file with one domain (or rank,domain) per line")
	crawlCmd.Flags().StringSliceP("profiles", "p", nil, "profiles to crawl with (default: all profiles)")
	crawlCmd.Flags().Bool("force", false, "crawl even when a result already exists")
	crawlCmd.Flags().Bool("annotate", false, "classify trackers and cookies after the batch")
	crawlCmd.Flags().String("report", "", "write the batch report as JSON to this file")
}

func printReport(cmd *cobra.Command, report *entity.BatchReport) {
	if report == nil {
		return
	}
	out := cmd.OutOrStdout()
	names := make([]string, 0, len(report.Profiles))
	for name := range report.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(out, "run %s finished in %s\n", report.RunID, report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	for _, name := range names {
		c := report.Profiles[name]
		fmt.Fprintf(out, "  %-20s succeeded=%d failed=%d skipped=%d\n", name, c.Succeeded, c.Failed, c.Skipped)
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
