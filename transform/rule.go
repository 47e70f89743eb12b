// Package transform implements the transformation pipeline described in
// spec.md §4.4: an ordered list of TransformationRule, each binding a
// source JSONPath to an optional target path through one of seven
// transformation variants, executed against the canonical value tree.
package transform

import "github.com/kesh-io/promptbridge/value"

// Direction selects which translation direction a rule applies to.
type Direction string

const (
	DirectionForward       Direction = "Forward"
	DirectionReverse       Direction = "Reverse"
	DirectionBidirectional Direction = "Bidirectional"
)

func (d Direction) appliesTo(requested Direction) bool {
	return d == DirectionBidirectional || d == requested
}

// Transformation is the closed sum type for the seven transformation
// variants (Design Note a): an interface with an unexported marker method
// implemented only by the types in this file, so the set is closed at
// compile time rather than open like a class hierarchy.
type Transformation interface {
	transformationMarker()
	// apply transforms in, returning the transformed value or an error
	// describing why the transformation could not be applied. ctx carries
	// the document root and path cache, needed by Conditional (whose
	// condition paths are JSONPath into the root, not the current value).
	apply(ctx *applyContext, in value.Value) (value.Value, error)
}

// applyContext threads the document root and the pipeline's per-call path
// cache through transformation application, for the one variant
// (Conditional) whose condition evaluates JSONPath against the root rather
// than the current matched value.
type applyContext struct {
	doc   value.Value
	cache *pathCache
}

// TypeConversion converts between string/number/boolean.
type TypeConversion struct {
	From, To ValueType
}

// ValueType names a scalar kind for TypeConversion.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
)

func (TypeConversion) transformationMarker() {}

// EnumMapping looks up in's string form in Mappings, falling back to
// Default if present.
type EnumMapping struct {
	Mappings map[string]string
	Default  *string
}

func (EnumMapping) transformationMarker() {}

// UnitFormula names one of the fixed conversion formulas, or "" to use
// Scale/Offset (Linear).
type UnitFormula string

const (
	FormulaLinear UnitFormula = ""
	FormulaCToF   UnitFormula = "c_to_f"
	FormulaFToC   UnitFormula = "f_to_c"
	FormulaCToK   UnitFormula = "c_to_k"
	FormulaKToC   UnitFormula = "k_to_c"
)

// UnitConversion converts a numeric value between units.
type UnitConversion struct {
	FromUnit, ToUnit string
	Formula          UnitFormula
	Scale, Offset    float64 // only used when Formula == FormulaLinear
}

func (UnitConversion) transformationMarker() {}

// FieldRename copies the source value to NewName; per the Open Question in
// spec.md §9 this is copy semantics, the source is never removed.
type FieldRename struct {
	NewName string
}

func (FieldRename) transformationMarker() {}

// DefaultValue injects Value only when the source is missing or null.
type DefaultValue struct {
	Value value.Value
}

func (DefaultValue) transformationMarker() {}

// Conditional recursively applies IfTrue or IfFalse depending on Condition.
type Conditional struct {
	Condition Condition
	IfTrue    Transformation
	IfFalse   Transformation // nil is valid: no-op when false and IfFalse absent
}

func (Conditional) transformationMarker() {}

// CustomFunc is a user-supplied value->value transformation, carried as a
// plain function value rather than a virtual method (Design Note a).
type CustomFunc func(in value.Value) (value.Value, error)

// Custom wraps a CustomFunc so it satisfies Transformation.
type Custom struct {
	Name string
	Fn   CustomFunc
}

func (Custom) transformationMarker() {}

// Rule is one entry in a Pipeline's ordered rule list (spec.md §4.4).
type Rule struct {
	ID             string
	SourcePath     string
	TargetPath     string // "" defaults to SourcePath
	Transformation Transformation
	Direction      Direction
	Priority       int
	Optional       bool
}

func (r Rule) effectiveTargetPath() string {
	if r.TargetPath == "" {
		return r.SourcePath
	}

	return r.TargetPath
}
