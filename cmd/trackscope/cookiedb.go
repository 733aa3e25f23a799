package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var cookieDBCmd = &cobra.Command{
	Use:   "cookiedb",
	Short: "Manage the cookie definition database",
}

var cookieDBImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import cookie definitions from a JSON object keyed by cookie name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := os.MkdirAll(filepath.Dir(a.cfg.Classifier.CookieDBPath), 0o755); err != nil {
			return err
		}
		repo, err := a.cookieDefinitions(true)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := repo.ImportJSON(cmd.Context(), f)
		if err != nil {
			return err
		}
		total, err := repo.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d definitions (%d in database)\n", n, total)
		return nil
	},
}

func init() {
	cookieDBCmd.AddCommand(cookieDBImportCmd)
}
