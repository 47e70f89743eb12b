package specloader

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kaptinlin/jsonrepair"
	"gopkg.in/yaml.v3"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/value"
)

// Format names a declarative document format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// detectFormatByExtension maps a file extension to a Format, or "" if the
// extension doesn't name one of the three supported formats.
func detectFormatByExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return ""
	}
}

// looksJSONShaped reports whether trimmed content starts like a JSON
// document, the signal used to decide whether jsonrepair is worth trying.
func looksJSONShaped(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return false
	}

	return trimmed[0] == '{' || trimmed[0] == '['
}

// parseBytes decodes content in the given format into the canonical value
// tree. format == "" triggers auto-detection by trial parsing, in the order
// JSON (strictest grammar, fails fast), YAML (a superset-ish of JSON), then
// TOML (least grammar overlap, tried last).
func parseBytes(content []byte, format Format) (value.Value, error) {
	if format != "" {
		return parseBytesAs(content, format)
	}

	if v, err := parseBytesAs(content, FormatJSON); err == nil {
		return v, nil
	}

	if v, err := parseBytesAs(content, FormatYAML); err == nil {
		return v, nil
	}

	if v, err := parseBytesAs(content, FormatTOML); err == nil {
		return v, nil
	}

	if looksJSONShaped(content) {
		repaired, err := jsonrepair.JSONRepair(string(content))
		if err == nil {
			if v, err := parseBytesAs([]byte(repaired), FormatJSON); err == nil {
				return v, nil
			}
		}
	}

	return value.Value{}, bridgeerr.New(bridgeerr.KindParseError, "content did not parse as JSON, YAML, or TOML")
}

func parseBytesAs(content []byte, format Format) (value.Value, error) {
	switch format {
	case FormatJSON:
		var v value.Value
		if err := v.UnmarshalJSON(content); err != nil {
			return value.Value{}, bridgeerr.Wrap(bridgeerr.KindParseError, err, "invalid JSON")
		}

		return v, nil
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return value.Value{}, bridgeerr.Wrap(bridgeerr.KindParseError, err, "invalid YAML")
		}

		return value.FromAny(normalizeYAML(raw))
	case FormatTOML:
		var raw map[string]any
		if err := toml.Unmarshal(content, &raw); err != nil {
			return value.Value{}, bridgeerr.Wrap(bridgeerr.KindParseError, err, "invalid TOML")
		}

		return value.FromAny(raw)
	default:
		return value.Value{}, bridgeerr.New(bridgeerr.KindParseError, "unknown format")
	}
}

// normalizeYAML recursively converts the map[string]interface{} / []interface{}
// shapes yaml.v3 produces into the map[string]any shape value.FromAny expects,
// since yaml.v3 emits map[string]interface{} for mappings (unlike yaml.v2's
// map[interface{}]interface{}) but leaves nested maps/slices as `any`.
func normalizeYAML(in any) any {
	switch t := in.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = normalizeYAML(v)
		}

		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = normalizeYAML(v)
		}

		return out
	default:
		return in
	}
}
