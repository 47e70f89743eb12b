// Command promptbridge is a thin demo around the promptbridge library: load
// a PromptSpec and a ProviderSpec from disk, translate against one of the
// provider's models, and print the provider-shaped body and its lossiness
// report.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kesh-io/promptbridge/internal/log"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "promptbridge",
	Short: "Translate a provider-agnostic LLM prompt into a provider-shaped request",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "CLI config file (json, yaml, or toml)")

	rootCmd.AddCommand(translateCmd, configCmd, versionCmd)
}

func main() {
	logger, err := zap.NewProduction()
	if err == nil {
		log.SetLogger(logger)
		defer logger.Sync() //nolint:errcheck
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
