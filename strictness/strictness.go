// Package strictness implements the pure decision engine described in
// spec.md §4.6: given the active mode and a deviation kind, decide whether
// to proceed, warn, fail, or coerce, and which lossiness item (if any) to
// record. No state, no I/O — every function here is a pure function of its
// arguments, matching Design Note (a)'s "plain function value" philosophy
// applied to policy, not just to transformation rules.
package strictness

import "github.com/kesh-io/promptbridge/specdata"

// Mode is the user-selected strictness tri-state.
type Mode string

const (
	ModeStrict Mode = "Strict"
	ModeWarn   Mode = "Warn"
	ModeCoerce Mode = "Coerce"
)

// Action is the outcome of a strictness decision.
type Action string

const (
	ActionProceed Action = "Proceed"
	ActionWarn    Action = "Warn"
	ActionFail    Action = "Fail"
	ActionCoerce  Action = "Coerce"
)

// Severity mirrors bridgeerr.Severity / LossinessItem.Severity.
type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityWarning  Severity = "Warning"
	SeverityError    Severity = "Error"
	SeverityCritical Severity = "Critical"
)

// Code mirrors LossinessItem.Code (spec.md §3).
type Code string

const (
	CodeUnsupported       Code = "Unsupported"
	CodeDrop              Code = "Drop"
	CodeClamp             Code = "Clamp"
	CodeConflict          Code = "Conflict"
	CodeRelocate          Code = "Relocate"
	CodePerformanceImpact Code = "PerformanceImpact"
	CodeEmulate           Code = "Emulate"
	CodeMapFallback       Code = "MapFallback"
)

// Item is the lossiness record a decision may produce. The lossiness
// package wraps this into its own LossinessItem with a path and timestamp;
// Item itself carries only what the decision function can know.
type Item struct {
	Code     Code
	Severity Severity
	Before   any
	After    any
	Message  string
}

// Decision is the result of evaluating a strictness site.
type Decision struct {
	Action Action
	Item   *Item // nil when no lossiness record should be produced
}

// Overrides maps a dotted path to a per-path mode override, consulted
// before falling back to the ambient mode for every site below.
type Overrides map[string]Mode

func (o Overrides) modeFor(path string, ambient Mode) Mode {
	if o == nil {
		return ambient
	}

	if m, ok := o[path]; ok {
		return m
	}

	return ambient
}

// UnsupportedFeature implements spec.md §4.6's first bullet: Strict fails
// (Critical); Warn warns and drops (Warning); Coerce proceeds and drops
// (Warning).
func UnsupportedFeature(path string, mode Mode, overrides Overrides) Decision {
	switch overrides.modeFor(path, mode) {
	case ModeStrict:
		return Decision{Action: ActionFail, Item: &Item{Code: CodeUnsupported, Severity: SeverityCritical}}
	case ModeWarn:
		return Decision{Action: ActionWarn, Item: &Item{Code: CodeDrop, Severity: SeverityWarning}}
	default: // ModeCoerce
		return Decision{Action: ActionProceed, Item: &Item{Code: CodeDrop, Severity: SeverityWarning}}
	}
}

// ValueClamp implements spec.md §4.6's clamping site. value must already be
// known numeric by the caller; non-numeric values are a validation failure
// handled upstream, not here.
func ValueClamp(path string, value, min, max float64, mode Mode, overrides Overrides) Decision {
	if value >= min && value <= max {
		return Decision{Action: ActionProceed}
	}

	clamped := value
	if clamped < min {
		clamped = min
	}

	if clamped > max {
		clamped = max
	}

	item := &Item{Code: CodeClamp, Before: value, After: clamped}

	switch overrides.modeFor(path, mode) {
	case ModeStrict:
		item.Severity = SeverityWarning
		return Decision{Action: ActionWarn, Item: item}
	case ModeWarn:
		item.Severity = SeverityInfo
		return Decision{Action: ActionWarn, Item: item}
	default: // ModeCoerce
		item.Severity = SeverityInfo
		return Decision{Action: ActionCoerce, Item: item}
	}
}

// FieldRelocation implements spec.md §4.6: always proceeds and always
// records an Info Relocate item.
func FieldRelocation(oldPath, newPath string) Decision {
	return Decision{
		Action: ActionProceed,
		Item:   &Item{Code: CodeRelocate, Severity: SeverityInfo, Message: oldPath + " -> " + newPath},
	}
}

// PerformanceImpact implements spec.md §4.6: warns in every mode.
func PerformanceImpact(message string) Decision {
	return Decision{
		Action: ActionWarn,
		Item:   &Item{Code: CodePerformanceImpact, Severity: SeverityWarning, Message: message},
	}
}

// FeatureEmulation implements spec.md §4.6: Strict warns; Warn/Coerce
// proceed, always recording an Emulate item.
func FeatureEmulation(path string, mode Mode, overrides Overrides) Decision {
	item := &Item{Code: CodeEmulate, Severity: SeverityWarning}

	if overrides.modeFor(path, mode) == ModeStrict {
		return Decision{Action: ActionWarn, Item: item}
	}

	return Decision{Action: ActionProceed, Item: item}
}

// ConflictDecision implements the mode-dependent half of spec.md §4.5: the
// winner is already chosen by the conflict package; this decides the
// action/severity for each loser given how many losers there are.
func ConflictDecision(mode Mode, loserCount int) Decision {
	item := &Item{Code: CodeConflict, Severity: SeverityInfo}

	switch mode {
	case ModeStrict:
		if loserCount > 1 {
			item.Severity = SeverityError
			return Decision{Action: ActionFail, Item: item}
		}

		item.Severity = SeverityWarning

		return Decision{Action: ActionWarn, Item: item}
	case ModeWarn:
		item.Severity = SeverityInfo
		return Decision{Action: ActionWarn, Item: item}
	default: // ModeCoerce
		item.Severity = SeverityInfo
		return Decision{Action: ActionCoerce, Item: item}
	}
}

// ProceedingTracker is the minimal surface EvaluateProceeding needs from the
// lossiness tracker, kept narrow to avoid an import cycle between
// strictness and lossiness (lossiness already depends on strictness for its
// Severity/Code vocabulary).
type ProceedingTracker interface {
	HasErrors() bool
	HasCriticalIssues() bool
}

// EvaluateProceeding implements spec.md §4.6's orthogonal gate: Strict
// fails on any Error-or-Critical; Warn and Coerce fail only on Critical.
func EvaluateProceeding(mode Mode, tracker ProceedingTracker) bool {
	if mode == ModeStrict {
		return !tracker.HasErrors() && !tracker.HasCriticalIssues()
	}

	return !tracker.HasCriticalIssues()
}

// FromSpecStrictMode converts specdata's document-level strict_mode field
// into this package's Mode, kept separate so specdata has no dependency on
// strictness.
func FromSpecStrictMode(m specdata.StrictMode) Mode {
	switch m {
	case specdata.StrictModeStrict:
		return ModeStrict
	case specdata.StrictModeCoerce:
		return ModeCoerce
	default:
		return ModeWarn
	}
}
