// Package schema validates a loaded spec document against its JSON-Schema
// and a fixed set of semantic rules, per spec.md §4.2: validation is a pure
// function from (document, mode) to a list of violations, never short-
// circuiting on the first finding.
package schema

import (
	"bytes"
	"embed"
	"os"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/specdata"
	"github.com/kesh-io/promptbridge/value"
)

//go:embed schemas/prompt_spec.schema.json schemas/provider_spec.schema.json
var embeddedSchemas embed.FS

const (
	promptSpecSchemaPath   = "schemas/prompt_spec.schema.json"
	providerSpecSchemaPath = "schemas/provider_spec.schema.json"

	promptSpecSchemaPathEnv   = "PROMPT_SPEC_SCHEMA_PATH"
	providerSpecSchemaPathEnv = "PROVIDER_SPEC_SCHEMA_PATH"
)

// Mode selects how much validation runs, per spec.md §4.2.
type Mode string

const (
	// ModeBasic runs structural (JSON-Schema) validation only.
	ModeBasic Mode = "Basic"
	// ModePartial adds the semantic rules that don't require compiling a
	// JSONPath expression (the cheapest semantic pass).
	ModePartial Mode = "Partial"
	// ModeStrict runs every semantic rule, including JSONPath validity.
	ModeStrict Mode = "Strict"
)

var (
	promptSchemaOnce sync.Once
	promptSchema     *jsonschema.Schema
	promptSchemaErr  error

	providerSchemaOnce sync.Once
	providerSchema     *jsonschema.Schema
	providerSchemaErr  error
)

func loadPromptSchema() (*jsonschema.Schema, error) {
	promptSchemaOnce.Do(func() {
		promptSchema, promptSchemaErr = compileSchema(promptSpecSchemaPath, promptSpecSchemaPathEnv)
	})

	return promptSchema, promptSchemaErr
}

func loadProviderSchema() (*jsonschema.Schema, error) {
	providerSchemaOnce.Do(func() {
		providerSchema, providerSchemaErr = compileSchema(providerSpecSchemaPath, providerSpecSchemaPathEnv)
	})

	return providerSchema, providerSchemaErr
}

// compileSchema reads the schema document — from the PROMPT_SPEC_SCHEMA_PATH
// / PROVIDER_SPEC_SCHEMA_PATH override if set, otherwise the embedded copy —
// and compiles it once.
func compileSchema(embeddedPath, envVar string) (*jsonschema.Schema, error) {
	var (
		raw []byte
		err error
	)

	resourceURL := "https://promptbridge.dev/schemas/" + embeddedPath

	if override := os.Getenv(envVar); override != "" {
		raw, err = os.ReadFile(override)
	} else {
		raw, err = embeddedSchemas.ReadFile(embeddedPath)
	}

	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceURL, doc); err != nil {
		return nil, err
	}

	return compiler.Compile(resourceURL)
}

// ValidatePromptSpec validates doc as a PromptSpec in mode, returning every
// collected violation. A nil/empty result means the document is valid at
// that mode.
func ValidatePromptSpec(doc value.Value, mode Mode) ([]bridgeerr.Violation, error) {
	sch, err := loadPromptSchema()
	if err != nil {
		return nil, err
	}

	violations := structuralViolations(sch, doc)

	if mode == ModeBasic {
		return violations, nil
	}

	_, semantic := specdata.DecodePromptSpec(doc)
	violations = append(violations, filterSemantic(semantic, mode)...)

	return violations, nil
}

// ValidateProviderSpec validates doc as a ProviderSpec in mode.
func ValidateProviderSpec(doc value.Value, mode Mode) ([]bridgeerr.Violation, error) {
	sch, err := loadProviderSchema()
	if err != nil {
		return nil, err
	}

	violations := structuralViolations(sch, doc)

	if mode == ModeBasic {
		return violations, nil
	}

	_, semantic := specdata.DecodeProviderSpec(doc)
	violations = append(violations, filterSemantic(semantic, mode)...)

	return violations, nil
}

func structuralViolations(sch *jsonschema.Schema, doc value.Value) []bridgeerr.Violation {
	err := sch.Validate(doc.ToAny())
	if err == nil {
		return nil
	}

	valErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []bridgeerr.Violation{{Path: "$", Message: err.Error(), Rule: "schema"}}
	}

	return flattenValidationError(valErr)
}

func flattenValidationError(e *jsonschema.ValidationError) []bridgeerr.Violation {
	var out []bridgeerr.Violation

	if len(e.Causes) == 0 {
		out = append(out, bridgeerr.Violation{
			Path:    e.InstanceLocation,
			Message: e.Error(),
			Rule:    "schema",
		})

		return out
	}

	for _, cause := range e.Causes {
		out = append(out, flattenValidationError(cause)...)
	}

	return out
}

// semanticRuleIsCheap reports whether a violation's rule tag belongs to the
// "cheapest semantic rules" subset run in Partial mode — everything except
// the rules that require compiling a JSONPath expression, which is the one
// non-trivial cost in the semantic pass.
func semanticRuleIsCheap(rule string) bool {
	return rule != "valid_jsonpath"
}

func filterSemantic(violations []bridgeerr.Violation, mode Mode) []bridgeerr.Violation {
	if mode == ModeStrict {
		return violations
	}

	var out []bridgeerr.Violation

	for _, v := range violations {
		if semanticRuleIsCheap(v.Rule) {
			out = append(out, v)
		}
	}

	return out
}
