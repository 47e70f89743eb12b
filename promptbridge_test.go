package promptbridge

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kesh-io/promptbridge/lossiness"
	"github.com/kesh-io/promptbridge/strictness"
	"github.com/kesh-io/promptbridge/value"
)

func promptDoc(extra ...value.KV) value.Value {
	base := []value.KV{
		{Key: "spec_version", Value: value.String("1.0")},
		{Key: "id", Value: value.String("req-1")},
		{Key: "model_class", Value: value.String("Chat")},
		{Key: "model", Value: value.String("gpt-5")},
		{Key: "messages", Value: value.Array(
			value.ObjectFromPairs(
				value.KV{Key: "role", Value: value.String("user")},
				value.KV{Key: "content", Value: value.String("hi")},
			),
		)},
	}

	return value.ObjectFromPairs(append(base, extra...)...)
}

func pathMapping(uniform, provider, hint string) value.Value {
	pairs := []value.KV{
		{Key: "uniform_path", Value: value.String(uniform)},
		{Key: "provider_path", Value: value.String(provider)},
	}
	if hint != "" {
		pairs = append(pairs, value.KV{Key: "hint", Value: value.String(hint)})
	}

	return value.ObjectFromPairs(pairs...)
}

func providerDoc(model value.Value) value.Value {
	return value.ObjectFromPairs(
		value.KV{Key: "spec_version", Value: value.String("1.0")},
		value.KV{Key: "provider", Value: value.ObjectFromPairs(
			value.KV{Key: "name", Value: value.String("anthropic")},
			value.KV{Key: "base_url", Value: value.String("https://api.anthropic.test")},
		)},
		value.KV{Key: "models", Value: value.Array(model)},
	)
}

func endpoint() value.Value {
	return value.ObjectFromPairs(
		value.KV{Key: "chat_completion", Value: value.ObjectFromPairs(
			value.KV{Key: "method", Value: value.String("POST")},
			value.KV{Key: "path", Value: value.String("https://api.anthropic.test/v1/messages")},
		)},
	)
}

// S1: one Forward EnumMapping at $.model, gpt-5 -> claude-opus-4-1-20250805.
func TestTranslateEnumMapsModelName(t *testing.T) {
	model := value.ObjectFromPairs(
		value.KV{Key: "id", Value: value.String("claude-opus-4-1-20250805")},
		value.KV{Key: "aliases", Value: value.Array(value.String("gpt-5"))},
		value.KV{Key: "endpoints", Value: endpoint()},
		value.KV{Key: "mappings", Value: value.ObjectFromPairs(
			value.KV{Key: "paths", Value: value.Array(
				pathMapping("$.model", "model", "enum:gpt-5=claude-opus-4-1-20250805"),
			)},
		)},
	)

	result, err := Translate(context.Background(), promptDoc(), providerDoc(model), "gpt-5", strictness.ModeWarn)
	require.NoError(t, err)

	got, ok := result.Body.Field("model")
	require.True(t, ok, "expected a top-level model field in the translated body")

	name, _ := got.AsString()
	assert.Equal(t, "claude-opus-4-1-20250805", name)

	var rec *lossiness.TransformationRecord
	for i := range result.Report.Records {
		if result.Report.Records[i].OperationType == lossiness.OpEnumMapping {
			rec = &result.Report.Records[i]
		}
	}

	require.NotNil(t, rec, "expected one EnumMapping record in the report")
	assert.Equal(t, "gpt-5", rec.Before)
	assert.Equal(t, "claude-opus-4-1-20250805", rec.After)
}

// S2: Linear(0.5,0) on sampling.temperature Forward, model constraint
// [0.0,1.0], mode=Coerce. 1.6 -> 0.8 after unit conversion, within range.
func TestTranslateUnitConversionThenInRangeClamp(t *testing.T) {
	model := value.ObjectFromPairs(
		value.KV{Key: "id", Value: value.String("claude-x")},
		value.KV{Key: "endpoints", Value: endpoint()},
		value.KV{Key: "parameters", Value: value.ObjectFromPairs(
			value.KV{Key: "temperature", Value: value.ObjectFromPairs(
				value.KV{Key: "min", Value: value.Number(0.0)},
				value.KV{Key: "max", Value: value.Number(1.0)},
			)},
		)},
		value.KV{Key: "mappings", Value: value.ObjectFromPairs(
			value.KV{Key: "paths", Value: value.Array(
				pathMapping("$.sampling.temperature", "temperature", "unit:linear:0.5,0"),
			)},
		)},
	)

	prompt := promptDoc(value.KV{Key: "sampling", Value: value.ObjectFromPairs(
		value.KV{Key: "temperature", Value: value.Number(1.6)},
	)})

	result, err := Translate(context.Background(), prompt, providerDoc(model), "claude-x", strictness.ModeCoerce)
	require.NoError(t, err)

	got, ok := result.Body.Field("temperature")
	require.True(t, ok)

	n, _ := got.AsNumber()
	assert.InDelta(t, 0.8, n, 1e-9)

	for _, item := range result.Report.Items {
		assert.NotEqual(t, strictness.CodeClamp, item.Code, "0.8 is in range, no clamp should be recorded")
	}
}

// Boundary behaviour: temperature 2.5 clamped to [0,2] under Coerce, no
// model-declared parameter bounds, so the fixed table applies.
func TestTranslateClampsOutOfRangeTemperatureUnderCoerce(t *testing.T) {
	model := value.ObjectFromPairs(
		value.KV{Key: "id", Value: value.String("claude-x")},
		value.KV{Key: "endpoints", Value: endpoint()},
		value.KV{Key: "mappings", Value: value.ObjectFromPairs(
			value.KV{Key: "paths", Value: value.Array(
				pathMapping("$.sampling.temperature", "temperature", ""),
			)},
		)},
	)

	prompt := promptDoc(value.KV{Key: "sampling", Value: value.ObjectFromPairs(
		value.KV{Key: "temperature", Value: value.Number(2.5)},
	)})

	result, err := Translate(context.Background(), prompt, providerDoc(model), "claude-x", strictness.ModeCoerce)
	require.NoError(t, err)

	got, ok := result.Body.Field("temperature")
	require.True(t, ok)

	n, _ := got.AsNumber()
	assert.InDelta(t, 2.0, n, 1e-9)

	var clamp *lossiness.Item
	for i := range result.Report.Items {
		if result.Report.Items[i].Code == strictness.CodeClamp {
			clamp = &result.Report.Items[i]
		}
	}

	require.NotNil(t, clamp, "expected a Clamp item")
	assert.Equal(t, 2.5, clamp.Before)
	assert.Equal(t, 2.0, clamp.After)
}

// S3: mutually_exclusive=[[temperature,top_k]], resolution_preferences=[temperature],
// both present -> top_k absent, Conflict/Drop recorded for the loser.
func TestTranslateConflictPreferenceOrderDropsLoser(t *testing.T) {
	model := value.ObjectFromPairs(
		value.KV{Key: "id", Value: value.String("claude-x")},
		value.KV{Key: "endpoints", Value: endpoint()},
		value.KV{Key: "constraints", Value: value.ObjectFromPairs(
			value.KV{Key: "mutually_exclusive", Value: value.Array(
				value.ObjectFromPairs(
					value.KV{Key: "paths", Value: value.Array(
						value.String("$.sampling.temperature"),
						value.String("$.sampling.top_k"),
					)},
					value.KV{Key: "strategy", Value: value.String("PreferenceOrder")},
				),
			)},
			value.KV{Key: "resolution_preferences", Value: value.Array(
				value.String("$.sampling.temperature"),
			)},
		)},
		value.KV{Key: "mappings", Value: value.ObjectFromPairs(
			value.KV{Key: "paths", Value: value.Array(
				pathMapping("$.sampling.temperature", "temperature", ""),
				pathMapping("$.sampling.top_k", "top_k", ""),
			)},
		)},
	)

	prompt := promptDoc(value.KV{Key: "sampling", Value: value.ObjectFromPairs(
		value.KV{Key: "temperature", Value: value.Number(0.7)},
		value.KV{Key: "top_k", Value: value.Number(40)},
	)})

	result, err := Translate(context.Background(), prompt, providerDoc(model), "claude-x", strictness.ModeWarn)
	require.NoError(t, err)

	_, hasTopK := result.Body.Field("top_k")
	assert.False(t, hasTopK, "top_k should have been dropped in favor of temperature")

	var conflict *lossiness.Item
	for i := range result.Report.Items {
		if result.Report.Items[i].Code == strictness.CodeConflict {
			conflict = &result.Report.Items[i]
		}
	}

	require.NotNil(t, conflict, "expected a Conflict item for the dropped field")
	assert.Equal(t, "$.sampling.top_k", conflict.Path)
}

// S4: tools_supported=false, prompt declares tools, mode=Strict ->
// StrictnessViolation with a Critical Unsupported item, report still
// attached to the error.
func TestTranslateUnsupportedToolsFailsUnderStrict(t *testing.T) {
	model := value.ObjectFromPairs(
		value.KV{Key: "id", Value: value.String("claude-x")},
		value.KV{Key: "endpoints", Value: endpoint()},
		value.KV{Key: "tooling", Value: value.ObjectFromPairs(
			value.KV{Key: "tools_supported", Value: value.Bool(false)},
		)},
	)

	prompt := promptDoc(value.KV{Key: "tools", Value: value.Array(
		value.ObjectFromPairs(
			value.KV{Key: "name", Value: value.String("lookup")},
			value.KV{Key: "description", Value: value.String("look things up")},
		),
	)})

	result, err := Translate(context.Background(), prompt, providerDoc(model), "claude-x", strictness.ModeStrict)
	require.Error(t, err)
	assert.Nil(t, result)

	var terr *TranslationError
	require.ErrorAs(t, err, &terr)
	require.NotNil(t, terr.Report, "partial report must be attached even on failure")
	require.Len(t, terr.Report.Items, 1)

	assert.Equal(t, strictness.CodeUnsupported, terr.Report.Items[0].Code)
	assert.Equal(t, strictness.SeverityCritical, terr.Report.Items[0].Severity)
	assert.Equal(t, lossiness.ActionFailed, terr.Report.Action)
}

// Boundary behaviour: empty messages array is rejected before any model
// lookup happens, regardless of mode.
func TestTranslateEmptyMessagesIsValidationError(t *testing.T) {
	prompt := value.ObjectFromPairs(
		value.KV{Key: "spec_version", Value: value.String("1.0")},
		value.KV{Key: "id", Value: value.String("req-1")},
		value.KV{Key: "model_class", Value: value.String("Chat")},
		value.KV{Key: "messages", Value: value.Array()},
	)

	model := value.ObjectFromPairs(
		value.KV{Key: "id", Value: value.String("claude-x")},
		value.KV{Key: "endpoints", Value: endpoint()},
	)

	_, err := Translate(context.Background(), prompt, providerDoc(model), "claude-x", strictness.ModeWarn)
	require.Error(t, err)

	var terr *TranslationError
	require.ErrorAs(t, err, &terr)
}

// Universal invariant: a model not present among the provider's models (or
// their aliases) fails with a ReferenceError, not a panic.
func TestTranslateUnknownModelIDFails(t *testing.T) {
	model := value.ObjectFromPairs(
		value.KV{Key: "id", Value: value.String("claude-x")},
		value.KV{Key: "endpoints", Value: endpoint()},
	)

	_, err := Translate(context.Background(), promptDoc(), providerDoc(model), "does-not-exist", strictness.ModeWarn)
	require.Error(t, err)

	var terr *TranslationError
	require.ErrorAs(t, err, &terr)
}

// Universal invariant: forbid_unknown_top_level_fields projects the final
// body down to only the keys the model's mappings declare, even though
// FieldRename is copy-semantics and leaves the uniform-shaped keys behind.
func TestTranslateForbidsUnknownTopLevelFields(t *testing.T) {
	model := value.ObjectFromPairs(
		value.KV{Key: "id", Value: value.String("claude-x")},
		value.KV{Key: "endpoints", Value: endpoint()},
		value.KV{Key: "constraints", Value: value.ObjectFromPairs(
			value.KV{Key: "forbid_unknown_top_level_fields", Value: value.Bool(true)},
		)},
		value.KV{Key: "mappings", Value: value.ObjectFromPairs(
			value.KV{Key: "paths", Value: value.Array(
				pathMapping("$.model", "model", ""),
			)},
		)},
	)

	result, err := Translate(context.Background(), promptDoc(), providerDoc(model), "claude-x", strictness.ModeWarn)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"model"}, result.Body.Keys())

	want := value.ObjectFromPairs(value.KV{Key: "model", Value: value.String("gpt-5")})
	if diff := cmp.Diff(want.ToAny(), result.Body.ToAny()); diff != "" {
		t.Fatalf("unexpected projected body (-want +got):\n%s", diff)
	}
}

// Mode sensitivity: the same unsupported-tooling document that fails under
// Strict (S4) should proceed under Warn, carrying the item in the report
// instead of aborting.
func TestTranslateUnsupportedToolsProceedsUnderWarn(t *testing.T) {
	model := value.ObjectFromPairs(
		value.KV{Key: "id", Value: value.String("claude-x")},
		value.KV{Key: "endpoints", Value: endpoint()},
		value.KV{Key: "tooling", Value: value.ObjectFromPairs(
			value.KV{Key: "tools_supported", Value: value.Bool(false)},
		)},
	)

	prompt := promptDoc(value.KV{Key: "tools", Value: value.Array(
		value.ObjectFromPairs(
			value.KV{Key: "name", Value: value.String("lookup")},
			value.KV{Key: "description", Value: value.String("look things up")},
		),
	)})

	result, err := Translate(context.Background(), prompt, providerDoc(model), "claude-x", strictness.ModeWarn)
	require.NoError(t, err)
	assert.Equal(t, lossiness.ActionWarned, result.Report.Action)
}
