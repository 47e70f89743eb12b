package transform

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/lossiness"
	"github.com/kesh-io/promptbridge/strictness"
	"github.com/kesh-io/promptbridge/value"
)

// Pipeline owns an ordered list of TransformationRule and applies them to a
// document (spec.md §4.4).
type Pipeline struct {
	rules []Rule
}

// New builds a Pipeline from rules, without mutating the input slice.
func New(rules []Rule) *Pipeline {
	cp := make([]Rule, len(rules))
	copy(cp, rules)

	return &Pipeline{rules: cp}
}

// Execute runs every rule whose Direction matches requested, in descending
// priority order (ties broken by original insertion order, Design Note e),
// against doc, recording every applied transformation on tracker. provider
// is attached to each TransformationRecord for provenance.
func (p *Pipeline) Execute(doc value.Value, requested Direction, tracker *lossiness.Tracker, provider string) (value.Value, error) {
	ordered := make([]Rule, len(p.rules))
	copy(ordered, p.rules)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	cache := newPathCache()
	ctx := &applyContext{doc: doc, cache: cache}

	for _, rule := range ordered {
		if !rule.Direction.appliesTo(requested) {
			continue
		}

		var err error

		doc, err = p.applyRule(rule, doc, ctx, tracker, provider)
		if err != nil {
			if rule.Optional {
				tracker.Add(lossiness.Item{
					Code:     strictness.CodeDrop,
					Path:     rule.SourcePath,
					Message:  "optional rule " + rule.ID + " failed: " + err.Error(),
					Severity: strictness.SeverityWarning,
				})

				continue
			}

			return doc, err
		}

		ctx.doc = doc
	}

	return doc, nil
}

func (p *Pipeline) applyRule(rule Rule, doc value.Value, ctx *applyContext, tracker *lossiness.Tracker, provider string) (value.Value, error) {
	compiled, err := ctx.cache.compile(rule.SourcePath)
	if err != nil {
		return doc, err
	}

	matches, err := compiled.Execute(doc)
	if err != nil {
		return doc, err
	}

	// A DefaultValue rule treats a missing source like a null one.
	if len(matches) == 0 {
		if _, ok := rule.Transformation.(DefaultValue); ok {
			matches = []value.Value{value.Null()}
		}
	}

	for _, before := range matches {
		start := time.Now()

		after, err := rule.Transformation.apply(ctx, before)
		if err != nil {
			return doc, err
		}

		duration := time.Since(start)

		doc, err = setAtPath(doc, rule.effectiveTargetPath(), after)
		if err != nil {
			wrapped := bridgeerr.Wrap(bridgeerr.KindTransformationError, err, "failed to write transformation result to "+rule.effectiveTargetPath())
			wrapped.SubKind = string(bridgeerr.TransformationSetPath)

			return doc, wrapped.WithPath(rule.effectiveTargetPath())
		}

		tracker.TrackTransformation(
			rule.effectiveTargetPath(),
			operationTypeFor(rule.Transformation),
			before.ToAny(),
			after.ToAny(),
			"rule "+rule.ID,
			provider,
			rule.ID,
			duration,
		)
	}

	return doc, nil
}

func operationTypeFor(t Transformation) lossiness.OperationType {
	switch t.(type) {
	case TypeConversion:
		return lossiness.OpTypeConversion
	case EnumMapping:
		return lossiness.OpEnumMapping
	case UnitConversion:
		return lossiness.OpUnitConversion
	case FieldRename:
		return lossiness.OpFieldMove
	case DefaultValue:
		return lossiness.OpDefaultApplied
	case Conditional:
		return lossiness.OpConditional
	case Custom:
		return lossiness.OpCustom
	default:
		return lossiness.OpCustom
	}
}

// setAtPath implements the set-at-path write-back contract (spec.md §4.4):
// simple dotted property targets go through value.SetPath, which returns an
// updated copy of the ordered-map tree (the fast path); targets touching an array index go through
// sjson.SetBytes on the document's marshaled form and are re-parsed, since
// value.SetPath only knows how to create missing objects, not arrays.
func setAtPath(doc value.Value, targetPath string, after value.Value) (value.Value, error) {
	segments := splitDotted(targetPath)

	if allObjectSegments(segments) {
		return value.SetPath(doc, segments, after)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return doc, err
	}

	sjsonPath := strings.Join(segments, ".")

	raw, err = sjson.SetBytes(raw, sjsonPath, after.ToAny())
	if err != nil {
		return doc, err
	}

	var out value.Value
	if err := json.Unmarshal(raw, &out); err != nil {
		return doc, err
	}

	return out, nil
}

func allObjectSegments(segments []string) bool {
	for _, seg := range segments {
		if _, err := strconv.Atoi(seg); err == nil {
			return false
		}
	}

	return true
}

func splitDotted(path string) []string {
	trimmed := path
	if len(trimmed) > 1 && trimmed[0] == '$' && trimmed[1] == '.' {
		trimmed = trimmed[2:]
	}

	var segs []string

	start := 0

	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] == '.' {
			segs = append(segs, trimmed[start:i])
			start = i + 1
		}
	}

	return append(segs, trimmed[start:])
}
