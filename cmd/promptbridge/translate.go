package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kesh-io/promptbridge"
	"github.com/kesh-io/promptbridge/internal/config"
	"github.com/kesh-io/promptbridge/specloader"
	"github.com/kesh-io/promptbridge/value"
)

var (
	promptPath   string
	providerPath string
	modelID      string
	modeFlag     string
	outputFormat string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a PromptSpec into a provider-shaped request body",
	RunE:  runTranslate,
}

func init() {
	translateCmd.Flags().StringVar(&promptPath, "prompt", "", "path to the PromptSpec document")
	translateCmd.Flags().StringVar(&providerPath, "provider", "", "path to the ProviderSpec document")
	translateCmd.Flags().StringVar(&modelID, "model", "", "model id or alias to translate against")
	translateCmd.Flags().StringVar(&modeFlag, "mode", "", "strictness mode override: Strict, Warn, or Coerce")
	translateCmd.Flags().StringVar(&outputFormat, "output", "", "output format override: json or yaml")
}

func runTranslate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if modeFlag != "" {
		cfg.Mode = modeFlag
	}

	if outputFormat != "" {
		cfg.OutputFormat = outputFormat
	}

	if promptPath != "" {
		cfg.PromptSpecPath = promptPath
	}

	if providerPath != "" {
		cfg.ProviderSpecPath = providerPath
	}

	if modelID != "" {
		cfg.ModelID = modelID
	}

	if cfg.PromptSpecPath == "" || cfg.ProviderSpecPath == "" || cfg.ModelID == "" {
		return fmt.Errorf("--prompt, --provider, and --model are required (directly or via config)")
	}

	loader := specloader.New()

	prompt, err := loader.Load(cfg.PromptSpecPath, specloader.Options{})
	if err != nil {
		return fmt.Errorf("loading prompt spec: %w", err)
	}

	prompt = ensurePromptID(prompt)

	provider, err := loader.Load(cfg.ProviderSpecPath, specloader.Options{})
	if err != nil {
		return fmt.Errorf("loading provider spec: %w", err)
	}

	result, err := promptbridge.Translate(context.Background(), prompt, provider, cfg.ModelID, cfg.StrictnessMode())
	if err != nil {
		var terr *promptbridge.TranslationError
		if errors.As(err, &terr) {
			printReport(cmd, cfg.OutputFormat, terr.Report)
		}

		return err
	}

	if err := printBody(cmd, cfg.OutputFormat, result); err != nil {
		return err
	}

	return nil
}

// ensurePromptID fills in a random request id when a loaded PromptSpec
// omits one, a convenience for specs authored by hand for a quick CLI run
// rather than generated by a caller that already tracks request ids.
func ensurePromptID(prompt value.Value) value.Value {
	if id, ok := prompt.Field("id"); ok {
		if s, _ := id.AsString(); s != "" {
			return prompt
		}
	}

	updated, err := value.SetPath(prompt, []string{"id"}, value.String(uuid.NewString()))
	if err != nil {
		return prompt
	}

	return updated
}

func printBody(cmd *cobra.Command, format string, result *promptbridge.Result) error {
	out := struct {
		Body   any `json:"body" yaml:"body"`
		Report any `json:"report" yaml:"report"`
	}{
		Body:   result.Body.ToAny(),
		Report: result.Report,
	}

	return writeOutput(cmd, format, out)
}

func printReport(cmd *cobra.Command, format string, report any) {
	if report == nil {
		return
	}

	_ = writeOutput(cmd, format, report)
}

func writeOutput(cmd *cobra.Command, format string, v any) error {
	switch format {
	case "yaml", "yml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(b))

		return nil
	default:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	}
}
