package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kesh-io/promptbridge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the demo CLI's own configuration",
}

var configPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the resolved CLI configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		b, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), string(b))

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the resolved CLI configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		problems := validate(cfg)
		if len(problems) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		}

		for _, p := range problems {
			fmt.Fprintln(cmd.OutOrStdout(), "-", p)
		}

		return fmt.Errorf("%d configuration problem(s) found", len(problems))
	},
}

func validate(cfg *config.Config) []string {
	var problems []string

	switch cfg.Mode {
	case "Strict", "Warn", "Coerce":
	default:
		problems = append(problems, "mode must be one of Strict, Warn, Coerce")
	}

	switch cfg.OutputFormat {
	case "json", "yaml", "yml":
	default:
		problems = append(problems, "output_format must be json or yaml")
	}

	return problems
}

func init() {
	configCmd.AddCommand(configPreviewCmd, configValidateCmd)
}
