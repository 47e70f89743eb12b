// Package promptbridge is the single entry point described in spec.md §6:
// Translate composes the spec loader's output through validation, capability
// gating, conflict resolution, the transformation pipeline, and the
// strictness gate, producing a provider-shaped body and a lossiness report
// in one call. No network I/O, no persistence between invocations (spec.md
// §1) — callers that need spec files loaded from disk go through
// specloader first; Translate itself only ever sees already-resolved
// value.Value trees.
package promptbridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/conflict"
	"github.com/kesh-io/promptbridge/lossiness"
	"github.com/kesh-io/promptbridge/schema"
	"github.com/kesh-io/promptbridge/specdata"
	"github.com/kesh-io/promptbridge/strictness"
	"github.com/kesh-io/promptbridge/transform"
	"github.com/kesh-io/promptbridge/value"
)

// Result is what a successful Translate call returns: the provider-shaped
// body and the full account of every deviation made along the way.
type Result struct {
	Body   value.Value
	Report *lossiness.Report
}

// TranslationError wraps a *bridgeerr.Error with whatever lossiness report
// had accumulated before the failure (spec.md §7: "on error, any partial
// report collected so far is attached to the error value"). It lives here,
// not in bridgeerr, because bridgeerr must not import lossiness: lossiness
// already imports strictness, and strictness imports specdata, which in
// turn imports bridgeerr — attaching a *lossiness.Report field to
// bridgeerr.Error directly would close that cycle.
type TranslationError struct {
	Err    error
	Report *lossiness.Report
}

func (e *TranslationError) Error() string { return e.Err.Error() }
func (e *TranslationError) Unwrap() error { return e.Err }

// Translate implements the Loading->Validating->Resolving->Transforming->
// Finalising state machine of spec.md §4.7 for the case where prompt and
// provider are already loaded and resolved trees (the "Loading" state is
// specloader's concern, upstream of this call): schema-validate both
// documents, decode them into typed views, look up the requested model,
// gate on its declared capabilities, resolve mutually-exclusive field
// conflicts, run the model's transformation pipeline, enforce its
// top-level-field policy, and finally consult the strictness gate before
// handing back a body and report.
//
// ctx is accepted for idiomatic consistency; specloader's Load takes no
// context, and per spec.md §5 the engine itself never blocks and has no
// suspension points, so ctx is unused here.
func Translate(_ context.Context, prompt value.Value, provider value.Value, modelID string, mode strictness.Mode) (*Result, error) {
	tracker := lossiness.New()

	schemaMode := schemaModeFor(mode)

	promptViolations, err := schema.ValidatePromptSpec(prompt, schemaMode)
	if err != nil {
		return nil, abort(tracker, bridgeerr.Wrap(bridgeerr.KindValidationError, err, "loading prompt spec schema"))
	}

	providerViolations, err := schema.ValidateProviderSpec(provider, schemaMode)
	if err != nil {
		return nil, abort(tracker, bridgeerr.Wrap(bridgeerr.KindValidationError, err, "loading provider spec schema"))
	}

	if violations := append(promptViolations, providerViolations...); len(violations) > 0 {
		verr := bridgeerr.New(bridgeerr.KindValidationError, "spec document failed validation")
		verr.Violations = violations

		return nil, abort(tracker, verr)
	}

	promptSpec, _ := specdata.DecodePromptSpec(prompt)
	providerSpec, _ := specdata.DecodeProviderSpec(provider)

	model, ok := providerSpec.FindModel(modelID)
	if !ok {
		return nil, abort(tracker, bridgeerr.New(bridgeerr.KindReferenceError, "model not found: "+modelID).WithPath("model_id"))
	}

	checkCapabilities(promptSpec, model, mode, tracker)

	doc := prompt

	outcomes, err := conflict.Resolve(model.Constraints, doc)
	if err != nil {
		return nil, abort(tracker, bridgeerr.Wrap(bridgeerr.KindTransformationError, err, "resolving mutually exclusive fields"))
	}

	recordConflictOutcomes(tracker, mode, outcomes)
	doc = conflict.Apply(doc, outcomes)

	rules, err := buildRules(model.Mappings)
	if err != nil {
		return nil, abort(tracker, err)
	}

	doc, err = transform.New(rules).Execute(doc, transform.DirectionForward, tracker, providerSpec.Provider.Name)
	if err != nil {
		return nil, abort(tracker, wrapPipelineErr(err))
	}

	doc = applyFlagMappings(doc, model.Mappings, tracker, providerSpec.Provider.Name)
	doc = applyNumericClamps(doc, model.Mappings, model.Parameters, mode, tracker)

	if model.Constraints.ForbidUnknownTopLevelFields {
		doc = restrictToAllowedTopLevelFields(doc, model.Mappings)
	}

	if !strictness.EvaluateProceeding(mode, tracker) {
		verr := bridgeerr.New(bridgeerr.KindStrictnessViolation, "translation did not meet the strictness gate for mode "+string(mode))
		verr.Mode = string(mode)

		return nil, abort(tracker, verr)
	}

	return &Result{Body: doc, Report: tracker.Report(reportAction(mode, tracker))}, nil
}

func recordConflictOutcomes(tracker *lossiness.Tracker, mode strictness.Mode, outcomes []conflict.Outcome) {
	for _, outcome := range outcomes {
		decision := strictness.ConflictDecision(mode, len(outcome.Losers))
		if decision.Item == nil {
			continue
		}

		for _, loser := range outcome.Losers {
			tracker.Add(lossiness.Item{
				Code:     decision.Item.Code,
				Path:     loser,
				Message:  fmt.Sprintf("mutually exclusive with %s: %s wins", outcome.Winner, outcome.Winner),
				Severity: decision.Item.Severity,
			})
		}
	}
}

func schemaModeFor(mode strictness.Mode) schema.Mode {
	switch mode {
	case strictness.ModeStrict:
		return schema.ModeStrict
	case strictness.ModeCoerce:
		return schema.ModeBasic
	default:
		return schema.ModePartial
	}
}

// reportAction derives the overall Report.Action (spec.md §6: "an overall
// action taken ∈ {Ok, Coerced, Warned, Failed}") from what the tracker
// accumulated. ActionFailed is only ever produced via abort, never here,
// since reaching this point means EvaluateProceeding already passed.
func reportAction(mode strictness.Mode, tracker *lossiness.Tracker) lossiness.Action {
	hasActivity := len(tracker.Items()) > 0 || tracker.SummaryStatistics().TotalTransformations > 0
	if !hasActivity {
		return lossiness.ActionOk
	}

	if mode == strictness.ModeCoerce {
		return lossiness.ActionCoerced
	}

	return lossiness.ActionWarned
}

func wrapPipelineErr(err error) error {
	var berr *bridgeerr.Error
	if errors.As(err, &berr) {
		return berr
	}

	return bridgeerr.Wrap(bridgeerr.KindTransformationError, err, "executing transformation pipeline")
}

func abort(tracker *lossiness.Tracker, err error) error {
	return &TranslationError{Err: err, Report: tracker.Report(lossiness.ActionFailed)}
}
