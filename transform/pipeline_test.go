package transform

import (
	"testing"

	"github.com/kesh-io/promptbridge/lossiness"
	"github.com/kesh-io/promptbridge/value"
)

// TestPipelineEnumMapping covers the model-name-mapping scenario (spec.md
// §8 S1): a provider names a model differently than the prompt's requested
// model class, resolved by a pipeline EnumMapping rule.
func TestPipelineEnumMapping(t *testing.T) {
	doc := value.ObjectFromPairs(value.KV{Key: "model_class", Value: value.String("fast")})

	p := New([]Rule{
		{
			ID:         "map-model-class",
			SourcePath: "$.model_class",
			Transformation: EnumMapping{
				Mappings: map[string]string{"fast": "gpt-4o-mini", "smart": "gpt-4o"},
			},
			Direction: DirectionForward,
		},
	})

	tracker := lossiness.New()

	out, err := p.Execute(doc, DirectionForward, tracker, "openai")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, ok := value.GetPath(out, []string{"model_class"})
	if !ok {
		t.Fatalf("expected model_class to remain present")
	}

	s, _ := got.AsString()
	if s != "gpt-4o-mini" {
		t.Fatalf("expected gpt-4o-mini, got %q", s)
	}

	records := tracker.GetTransformationsByType(lossiness.OpEnumMapping)
	if len(records) != 1 {
		t.Fatalf("expected 1 EnumMapping record, got %d", len(records))
	}
}

// TestPipelineUnitConversionCelsiusToFahrenheit covers the temperature
// scaling scenario (spec.md §8 S2).
func TestPipelineUnitConversionCelsiusToFahrenheit(t *testing.T) {
	doc := value.ObjectFromPairs(value.KV{Key: "temperature_celsius", Value: value.Number(100)})

	p := New([]Rule{
		{
			ID:             "celsius-to-fahrenheit",
			SourcePath:     "$.temperature_celsius",
			TargetPath:     "$.temperature_fahrenheit",
			Transformation: UnitConversion{FromUnit: "celsius", ToUnit: "fahrenheit", Formula: FormulaCToF},
			Direction:      DirectionForward,
		},
	})

	tracker := lossiness.New()

	out, err := p.Execute(doc, DirectionForward, tracker, "acme")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, ok := value.GetPath(out, []string{"temperature_fahrenheit"})
	if !ok {
		t.Fatalf("expected temperature_fahrenheit to be set")
	}

	n, _ := got.AsNumber()
	if n != 212 {
		t.Fatalf("expected 212, got %v", n)
	}
}

func TestPipelineUnitConversionFahrenheitToCelsius(t *testing.T) {
	doc := value.ObjectFromPairs(value.KV{Key: "temp", Value: value.Number(32)})

	p := New([]Rule{
		{
			ID:             "f-to-c",
			SourcePath:     "$.temp",
			Transformation: UnitConversion{Formula: FormulaFToC},
			Direction:      DirectionForward,
		},
	})

	out, err := p.Execute(doc, DirectionForward, lossiness.New(), "acme")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, _ := value.GetPath(out, []string{"temp"})

	n, _ := got.AsNumber()
	if n != 0 {
		t.Fatalf("expected 0, got %v", n)
	}
}

// TestPipelineFieldRenameIsCopySemantics verifies the resolved Open Question
// that FieldRename copies to the target path without removing the source.
func TestPipelineFieldRenameIsCopySemantics(t *testing.T) {
	doc := value.ObjectFromPairs(value.KV{Key: "old_name", Value: value.String("hello")})

	p := New([]Rule{
		{
			ID:             "rename",
			SourcePath:     "$.old_name",
			TargetPath:     "$.new_name",
			Transformation: FieldRename{NewName: "new_name"},
			Direction:      DirectionForward,
		},
	})

	out, err := p.Execute(doc, DirectionForward, lossiness.New(), "acme")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	oldVal, ok := value.GetPath(out, []string{"old_name"})
	if !ok {
		t.Fatalf("expected old_name to still be present under copy semantics")
	}

	if s, _ := oldVal.AsString(); s != "hello" {
		t.Fatalf("expected old_name unchanged, got %q", s)
	}

	newVal, ok := value.GetPath(out, []string{"new_name"})
	if !ok {
		t.Fatalf("expected new_name to be set")
	}

	if s, _ := newVal.AsString(); s != "hello" {
		t.Fatalf("expected new_name to carry the copied value, got %q", s)
	}
}

// TestPipelineDefaultValueOnlyAppliesWhenNull verifies DefaultValue never
// overwrites an already-present non-null value.
func TestPipelineDefaultValueOnlyAppliesWhenNull(t *testing.T) {
	doc := value.ObjectFromPairs(value.KV{Key: "top_p", Value: value.Null()})

	p := New([]Rule{
		{
			ID:             "default-top-p",
			SourcePath:     "$.top_p",
			Transformation: DefaultValue{Value: value.Number(0.95)},
			Direction:      DirectionForward,
		},
	})

	out, err := p.Execute(doc, DirectionForward, lossiness.New(), "acme")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, _ := value.GetPath(out, []string{"top_p"})

	n, _ := got.AsNumber()
	if n != 0.95 {
		t.Fatalf("expected default 0.95 to be injected into a null field, got %v", n)
	}

	doc2 := value.ObjectFromPairs(value.KV{Key: "top_p", Value: value.Number(0.5)})

	out2, err := p.Execute(doc2, DirectionForward, lossiness.New(), "acme")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got2, _ := value.GetPath(out2, []string{"top_p"})

	n2, _ := got2.AsNumber()
	if n2 != 0.5 {
		t.Fatalf("expected existing non-null value preserved, got %v", n2)
	}
}

// TestPipelineConditionalDispatchesOnRootPath verifies Conditional evaluates
// its Condition against the document root, not the matched value.
func TestPipelineConditionalDispatchesOnRootPath(t *testing.T) {
	doc := value.ObjectFromPairs(
		value.KV{Key: "model_class", Value: value.String("reasoning")},
		value.KV{Key: "max_tokens", Value: value.Number(1000)},
	)

	p := New([]Rule{
		{
			ID:         "clamp-reasoning-tokens",
			SourcePath: "$.max_tokens",
			Transformation: Conditional{
				Condition: Equals{Path: "$.model_class", Value: value.String("reasoning")},
				IfTrue:    UnitConversion{Formula: FormulaLinear, Scale: 2, Offset: 0},
				IfFalse:   UnitConversion{Formula: FormulaLinear, Scale: 1, Offset: 0},
			},
			Direction: DirectionForward,
		},
	})

	out, err := p.Execute(doc, DirectionForward, lossiness.New(), "acme")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, _ := value.GetPath(out, []string{"max_tokens"})

	n, _ := got.AsNumber()
	if n != 2000 {
		t.Fatalf("expected conditional branch to double max_tokens to 2000, got %v", n)
	}
}

// TestPipelineOptionalRuleFailureIsRecordedNotFatal verifies an optional
// rule's failure degrades to a warning instead of aborting the pipeline.
func TestPipelineOptionalRuleFailureIsRecordedNotFatal(t *testing.T) {
	doc := value.ObjectFromPairs(value.KV{Key: "status", Value: value.String("unmapped")})

	p := New([]Rule{
		{
			ID:             "map-status",
			SourcePath:     "$.status",
			Transformation: EnumMapping{Mappings: map[string]string{"ok": "success"}},
			Direction:      DirectionForward,
			Optional:       true,
		},
	})

	tracker := lossiness.New()

	out, err := p.Execute(doc, DirectionForward, tracker, "acme")
	if err != nil {
		t.Fatalf("expected optional rule failure to not abort the pipeline, got %v", err)
	}

	got, _ := value.GetPath(out, []string{"status"})
	if s, _ := got.AsString(); s != "unmapped" {
		t.Fatalf("expected document unchanged after optional rule failure, got %q", s)
	}

	if len(tracker.Items()) != 1 {
		t.Fatalf("expected 1 recorded lossiness item, got %d", len(tracker.Items()))
	}
}

// TestPipelineMandatoryRuleFailureAborts verifies a non-optional rule's
// failure propagates and stops the pipeline.
func TestPipelineMandatoryRuleFailureAborts(t *testing.T) {
	doc := value.ObjectFromPairs(value.KV{Key: "status", Value: value.String("unmapped")})

	p := New([]Rule{
		{
			ID:             "map-status",
			SourcePath:     "$.status",
			Transformation: EnumMapping{Mappings: map[string]string{"ok": "success"}},
			Direction:      DirectionForward,
		},
	})

	_, err := p.Execute(doc, DirectionForward, lossiness.New(), "acme")
	if err == nil {
		t.Fatalf("expected mandatory rule failure to propagate an error")
	}
}

// TestPipelineDirectionFiltering verifies a Reverse-only rule is skipped
// when executing Forward.
func TestPipelineDirectionFiltering(t *testing.T) {
	doc := value.ObjectFromPairs(value.KV{Key: "x", Value: value.Number(1)})

	p := New([]Rule{
		{
			ID:             "reverse-only",
			SourcePath:     "$.x",
			Transformation: UnitConversion{Formula: FormulaLinear, Scale: 100, Offset: 0},
			Direction:      DirectionReverse,
		},
	})

	out, err := p.Execute(doc, DirectionForward, lossiness.New(), "acme")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, _ := value.GetPath(out, []string{"x"})

	n, _ := got.AsNumber()
	if n != 1 {
		t.Fatalf("expected reverse-only rule skipped in forward direction, got %v", n)
	}
}

// TestPipelinePriorityOrdering verifies higher-priority rules apply first,
// which matters when two rules target overlapping paths.
func TestPipelinePriorityOrdering(t *testing.T) {
	doc := value.ObjectFromPairs(value.KV{Key: "n", Value: value.Number(1)})

	p := New([]Rule{
		{
			ID:             "low-priority-double",
			SourcePath:     "$.n",
			Transformation: UnitConversion{Formula: FormulaLinear, Scale: 2, Offset: 0},
			Direction:      DirectionForward,
			Priority:       1,
		},
		{
			ID:             "high-priority-add-ten",
			SourcePath:     "$.n",
			Transformation: UnitConversion{Formula: FormulaLinear, Scale: 1, Offset: 10},
			Direction:      DirectionForward,
			Priority:       10,
		},
	})

	out, err := p.Execute(doc, DirectionForward, lossiness.New(), "acme")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, _ := value.GetPath(out, []string{"n"})

	n, _ := got.AsNumber()
	if n != 22 {
		t.Fatalf("expected (1+10)*2=22 with high-priority add-ten applied first, got %v", n)
	}
}
