package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Add tracker and tracking-cookie analyses to stored results",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		domain, _ := cmd.Flags().GetString("domain")
		update, _ := cmd.Flags().GetBool("update-lists")

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
		ann, _, err := a.annotator(ctx, s.results, update)
		if err != nil {
			return err
		}

		if domain != "" {
			if profile == "" {
				return fmt.Errorf("--domain requires --profile")
			}
			doc, err := ann.Annotate(ctx, profile, domain)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"cookie_analysis":  doc.CookieAnalysis,
				"tracker_analysis": doc.TrackerAnalysis,
			})
		}

		n, err := ann.AnnotateAll(ctx, profile)
		if err != nil {
			return err
		}
		a.logger.Info("Annotated results", zap.String("profile", profile), zap.Int("documents", n))
		fmt.Fprintf(cmd.OutOrStdout(), "annotated %d documents\n", n)
		return nil
	},
}

func init() {
	classifyCmd.Flags().String("profile", "", "only annotate results of this profile")
	classifyCmd.Flags().String("domain", "", "annotate one domain and print the analyses")
	classifyCmd.Flags().Bool("update-lists", false, "download the configured filter lists first")
}
