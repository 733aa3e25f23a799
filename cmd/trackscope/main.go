package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "trackscope",
	Short: "Measure web tracking across browser profiles.",
	Long: `trackscope visits websites with several browser profiles, records network
traffic, cookies, storage, fingerprinting calls and consent banners, and
classifies trackers and tracking cookies in the collected results.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./trackscope.yaml or $XDG_CONFIG_HOME/trackscope/trackscope.yaml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "loglevel", "l", "", "override log level: debug, info, warn, error")

	rootCmd.AddCommand(crawlCmd, collectCmd, classifyCmd, validateCmd, serveCmd, cookieDBCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
