// Package config loads the demo CLI's own configuration, separate from the
// library's per-call Translate arguments: which spec files to read, which
// model to target, the strictness mode, and the output format. The core
// engine takes no configuration object; this package exists only for
// cmd/promptbridge.
package config

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/strictness"
)

// Config is the demo CLI's resolved configuration.
type Config struct {
	PromptSpecPath     string `mapstructure:"prompt_spec_path"`
	ProviderSpecPath   string `mapstructure:"provider_spec_path"`
	ModelID            string `mapstructure:"model_id"`
	Mode               string `mapstructure:"mode"`
	OutputFormat       string `mapstructure:"output_format"`
	PromptSchemaPath   string `mapstructure:"prompt_schema_path"`
	ProviderSchemaPath string `mapstructure:"provider_schema_path"`
}

// StrictnessMode decodes Mode into the engine's strictness.Mode, defaulting
// to Strict for an empty or unrecognized value.
func (c *Config) StrictnessMode() strictness.Mode {
	switch strictness.Mode(c.Mode) {
	case strictness.ModeWarn:
		return strictness.ModeWarn
	case strictness.ModeCoerce:
		return strictness.ModeCoerce
	default:
		return strictness.ModeStrict
	}
}

// Load builds a Config from defaults, an optional config file (JSON, YAML,
// or TOML, selected by extension), and PROMPTBRIDGE_-prefixed environment
// variables, in that ascending order of precedence. A TOML config file is
// decoded with github.com/BurntSushi/toml directly rather than through
// viper's own reader, the same library the spec loader uses for TOML specs.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("PROMPTBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", string(strictness.ModeStrict))
	v.SetDefault("output_format", "json")

	_ = v.BindEnv("prompt_schema_path", "PROMPT_SPEC_SCHEMA_PATH")
	_ = v.BindEnv("provider_schema_path", "PROVIDER_SPEC_SCHEMA_PATH")

	// Unmarshal only sees keys viper already knows, so keys without a
	// default are bound to their PROMPTBRIDGE_ variables explicitly.
	for _, key := range []string{"prompt_spec_path", "provider_spec_path", "model_id"} {
		_ = v.BindEnv(key)
	}

	if cfgFile != "" {
		if err := mergeConfigFile(v, cfgFile); err != nil {
			return nil, bridgeerr.Wrap(bridgeerr.KindParseError, err, "loading CLI config file "+cfgFile)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindParseError, err, "decoding CLI config")
	}

	return &cfg, nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.HasSuffix(strings.ToLower(path), ".toml") {
		raw := map[string]any{}
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return err
		}

		return v.MergeConfigMap(raw)
	}

	v.SetConfigFile(path)

	return v.MergeInConfig()
}
