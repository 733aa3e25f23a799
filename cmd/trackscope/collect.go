package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/adapter/filesystem"
	"github.com/user/trackscope/internal/usecase"
)

var collectCmd = &cobra.Command{
	Use:   "collect [domain...]",
	Short: "Collect same-site subpages for each domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		domainsFile, _ := cmd.Flags().GetString("domains-file")
		profileName, _ := cmd.Flags().GetString("profile")

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
		var names []string
		if profileName != "" {
			names = []string{profileName}
		}
		profiles, err := a.profiles(names)
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			return errors.New("no profiles configured")
		}

		collector := usecase.NewPageCollector(
			a.browserBackend(),
			filesystem.NewSubpageRepo(a.cfg.Storage.SitePagesDir),
			a.cfg.Crawl,
			a.logger,
		)
		var failed int
		for _, d := range domains {
			if err := ctx.Err(); err != nil {
				return err
			}
			list, err := collector.Collect(ctx, d, profiles[0])
			if err != nil {
				failed++
				a.logger.Error("Collection failed", zap.String("domain", d), zap.Error(err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages\n", d, list.Count)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d domains failed", failed, len(domains))
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().StringP("domains-file", "f", "", "file with one domain (or rank,domain) per line")
	collectCmd.Flags().String("profile", "", "profile whose browser collects the pages (default: first profile)")
}
