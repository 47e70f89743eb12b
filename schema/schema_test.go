package schema

import (
	"testing"

	"github.com/kesh-io/promptbridge/value"
)

func validPromptDoc() value.Value {
	return value.ObjectFromPairs(
		value.KV{Key: "spec_version", Value: value.String("1.0")},
		value.KV{Key: "id", Value: value.String("req-1")},
		value.KV{Key: "model_class", Value: value.String("Chat")},
		value.KV{Key: "messages", Value: value.Array(
			value.ObjectFromPairs(
				value.KV{Key: "role", Value: value.String("user")},
				value.KV{Key: "content", Value: value.String("hi")},
			),
		)},
	)
}

func TestValidatePromptSpecBasicAcceptsStructurallyValidDoc(t *testing.T) {
	violations, err := ValidatePromptSpec(validPromptDoc(), ModeBasic)
	if err != nil {
		t.Fatalf("ValidatePromptSpec: %v", err)
	}

	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestValidatePromptSpecBasicRejectsMissingRequiredField(t *testing.T) {
	doc := value.ObjectFromPairs(
		value.KV{Key: "spec_version", Value: value.String("1.0")},
	)

	violations, err := ValidatePromptSpec(doc, ModeBasic)
	if err != nil {
		t.Fatalf("ValidatePromptSpec: %v", err)
	}

	if len(violations) == 0 {
		t.Fatalf("expected structural violations for a document missing required fields")
	}
}

func TestValidatePromptSpecStrictCatchesSemanticViolation(t *testing.T) {
	doc := value.ObjectFromPairs(
		value.KV{Key: "spec_version", Value: value.String("1.0")},
		value.KV{Key: "id", Value: value.String("req-1")},
		value.KV{Key: "model_class", Value: value.String("Chat")},
		value.KV{Key: "messages", Value: value.Array(
			value.ObjectFromPairs(
				value.KV{Key: "role", Value: value.String("user")},
				value.KV{Key: "content", Value: value.String("hi")},
			),
		)},
		value.KV{Key: "limits", Value: value.ObjectFromPairs(
			value.KV{Key: "reasoning_tokens", Value: value.Number(100)},
		)},
	)

	violations, err := ValidatePromptSpec(doc, ModeStrict)
	if err != nil {
		t.Fatalf("ValidatePromptSpec: %v", err)
	}

	found := false

	for _, v := range violations {
		if v.Rule == "reasoning_tokens_model_class" {
			found = true
		}
	}

	if !found {
		t.Fatalf("expected reasoning_tokens_model_class violation, got %v", violations)
	}
}

func TestValidatePromptSpecPartialKeepsCheapRules(t *testing.T) {
	// Partial mode only applies to PromptSpec's own rule set, which has no
	// JSONPath rules; this test documents that Partial still surfaces the
	// cheap rules rather than silently passing every PromptSpec document.
	doc := value.ObjectFromPairs(
		value.KV{Key: "spec_version", Value: value.String("1.0")},
		value.KV{Key: "id", Value: value.String("req-1")},
		value.KV{Key: "model_class", Value: value.String("Chat")},
		value.KV{Key: "messages", Value: value.Array()},
	)

	violations, err := ValidatePromptSpec(doc, ModePartial)
	if err != nil {
		t.Fatalf("ValidatePromptSpec: %v", err)
	}

	found := false

	for _, v := range violations {
		if v.Rule == "non_empty" {
			found = true
		}
	}

	if !found {
		t.Fatalf("expected non_empty violation for an empty messages array, got %v", violations)
	}
}

func TestValidateProviderSpecPartialSkipsValidJSONPathRule(t *testing.T) {
	doc := value.ObjectFromPairs(
		value.KV{Key: "spec_version", Value: value.String("1.0")},
		value.KV{Key: "provider", Value: value.ObjectFromPairs(
			value.KV{Key: "name", Value: value.String("acme")},
			value.KV{Key: "base_url", Value: value.String("https://api.acme.test")},
		)},
		value.KV{Key: "models", Value: value.Array(
			value.ObjectFromPairs(
				value.KV{Key: "id", Value: value.String("acme-1")},
				value.KV{Key: "endpoints", Value: value.ObjectFromPairs(
					value.KV{Key: "chat_completion", Value: value.ObjectFromPairs(
						value.KV{Key: "method", Value: value.String("POST")},
						value.KV{Key: "path", Value: value.String("https://api.acme.test/v1/chat")},
					)},
				)},
				value.KV{Key: "mappings", Value: value.ObjectFromPairs(
					value.KV{Key: "paths", Value: value.Array(
						value.ObjectFromPairs(
							value.KV{Key: "uniform_path", Value: value.String("$.[[[not valid")},
							value.KV{Key: "provider_path", Value: value.String("model")},
						),
					)},
				)},
			),
		)},
	)

	partial, err := ValidateProviderSpec(doc, ModePartial)
	if err != nil {
		t.Fatalf("ValidateProviderSpec: %v", err)
	}

	for _, v := range partial {
		if v.Rule == "valid_jsonpath" {
			t.Fatalf("expected Partial mode to skip valid_jsonpath, got %v", partial)
		}
	}

	strict, err := ValidateProviderSpec(doc, ModeStrict)
	if err != nil {
		t.Fatalf("ValidateProviderSpec: %v", err)
	}

	found := false

	for _, v := range strict {
		if v.Rule == "valid_jsonpath" {
			found = true
		}
	}

	if !found {
		t.Fatalf("expected Strict mode to include valid_jsonpath, got %v", strict)
	}
}
