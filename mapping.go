package promptbridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/lossiness"
	"github.com/kesh-io/promptbridge/specdata"
	"github.com/kesh-io/promptbridge/transform"
	"github.com/kesh-io/promptbridge/value"
)

// buildRules turns a model's declarative path mappings into a pipeline's
// rule list. Each PathMapping becomes one Forward rule; its Hint (or, if
// unset, a same-keyed entry in TransformHints) selects the transformation
// variant through the small grammar parseHint implements. A missing hint
// defaults to a plain copy.
func buildRules(mappings specdata.Mappings) ([]transform.Rule, error) {
	var rules []transform.Rule

	for i, pm := range mappings.Paths {
		if pm.UniformPath == "" {
			continue
		}

		hint := pm.Hint
		if hint == "" {
			hint = mappings.TransformHints[pm.UniformPath]
		}

		optional := false
		if rest, ok := strings.CutSuffix(hint, ",optional"); ok {
			hint = rest
			optional = true
		}

		transformation, err := parseHint(hint)
		if err != nil {
			return nil, bridgeerr.Wrap(bridgeerr.KindTransformationError, err, "building rule for "+pm.UniformPath).WithPath(pm.UniformPath)
		}

		rules = append(rules, transform.Rule{
			ID:             fmt.Sprintf("path-%d", i),
			SourcePath:     pm.UniformPath,
			TargetPath:     pm.ProviderPath,
			Transformation: transformation,
			Direction:      transform.DirectionForward,
			Priority:       0,
			Optional:       optional,
		})
	}

	return rules, nil
}

// parseHint decodes a "kind:params" transformation hint. Recognised kinds:
//
//	copy            (also the default for an empty hint)
//	enum:a=x|b=y|default=z
//	unit:c_to_f | f_to_c | c_to_k | k_to_c | linear:<scale>,<offset>
//	type:string | number | boolean
//	default:<scalar>
func parseHint(hint string) (transform.Transformation, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" || hint == "copy" {
		return transform.FieldRename{}, nil
	}

	kind, params, _ := strings.Cut(hint, ":")

	switch kind {
	case "enum":
		return parseEnumHint(params)
	case "unit":
		return parseUnitHint(params)
	case "type":
		return parseTypeHint(params)
	case "default":
		return transform.DefaultValue{Value: parseScalar(params)}, nil
	default:
		return nil, fmt.Errorf("unrecognized transformation hint %q", hint)
	}
}

func parseEnumHint(params string) (transform.EnumMapping, error) {
	em := transform.EnumMapping{Mappings: map[string]string{}}

	for _, segment := range strings.Split(params, "|") {
		key, val, ok := strings.Cut(segment, "=")
		if !ok {
			return em, fmt.Errorf("invalid enum hint segment %q", segment)
		}

		if key == "default" {
			v := val
			em.Default = &v

			continue
		}

		em.Mappings[key] = val
	}

	return em, nil
}

func parseUnitHint(params string) (transform.UnitConversion, error) {
	switch params {
	case "c_to_f":
		return transform.UnitConversion{Formula: transform.FormulaCToF}, nil
	case "f_to_c":
		return transform.UnitConversion{Formula: transform.FormulaFToC}, nil
	case "c_to_k":
		return transform.UnitConversion{Formula: transform.FormulaCToK}, nil
	case "k_to_c":
		return transform.UnitConversion{Formula: transform.FormulaKToC}, nil
	}

	rest, ok := strings.CutPrefix(params, "linear:")
	if !ok {
		return transform.UnitConversion{}, fmt.Errorf("unknown unit hint %q", params)
	}

	nums := strings.Split(rest, ",")
	if len(nums) != 2 {
		return transform.UnitConversion{}, fmt.Errorf("linear unit hint requires scale,offset, got %q", rest)
	}

	scale, err := strconv.ParseFloat(strings.TrimSpace(nums[0]), 64)
	if err != nil {
		return transform.UnitConversion{}, fmt.Errorf("invalid linear scale %q: %w", nums[0], err)
	}

	offset, err := strconv.ParseFloat(strings.TrimSpace(nums[1]), 64)
	if err != nil {
		return transform.UnitConversion{}, fmt.Errorf("invalid linear offset %q: %w", nums[1], err)
	}

	return transform.UnitConversion{Formula: transform.FormulaLinear, Scale: scale, Offset: offset}, nil
}

var typeHintKinds = map[string]transform.ValueType{
	"string":  transform.TypeString,
	"number":  transform.TypeNumber,
	"boolean": transform.TypeBoolean,
}

func parseTypeHint(params string) (transform.TypeConversion, error) {
	to, ok := typeHintKinds[params]
	if !ok {
		return transform.TypeConversion{}, fmt.Errorf("unknown type hint %q", params)
	}

	// From is left at the zero value, distinct from every real ValueType, so
	// TypeConversion.apply's From==To shortcut never fires for a declared
	// hint and the conversion always runs its real From-independent switch
	// on To.
	return transform.TypeConversion{To: to}, nil
}

func parseScalar(s string) value.Value {
	switch s {
	case "null":
		return value.Null()
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return value.Number(n)
	}

	return value.String(strings.Trim(s, `"`))
}

// allowedTopLevelKeys computes the provider top-level keys a model's
// mappings can legitimately produce, used to enforce
// forbid_unknown_top_level_fields (spec.md §8).
func allowedTopLevelKeys(mappings specdata.Mappings) map[string]struct{} {
	allowed := map[string]struct{}{}

	for _, pm := range mappings.Paths {
		if pm.ProviderPath == "" {
			continue
		}

		allowed[firstDottedSegment(pm.ProviderPath)] = struct{}{}
	}

	for _, providerPath := range mappings.FlagMappings {
		allowed[firstDottedSegment(providerPath)] = struct{}{}
	}

	return allowed
}

// restrictToAllowedTopLevelFields projects doc down to only the top-level
// keys allowedTopLevelKeys names, dropping whatever uniform-shaped fields
// survived the (copy-semantics) pipeline untouched.
func restrictToAllowedTopLevelFields(doc value.Value, mappings specdata.Mappings) value.Value {
	allowed := allowedTopLevelKeys(mappings)

	out := value.Object()

	for _, key := range doc.Keys() {
		if _, ok := allowed[key]; !ok {
			continue
		}

		if v, ok := doc.Field(key); ok {
			out = out.Set(key, v)
		}
	}

	return out
}

// applyFlagMappings copies each uniform flag path present in doc to its
// provider-side target, a lighter-weight sibling of buildRules' JSONPath
// rules for the plain key->key bindings a model's flag_mappings declares.
func applyFlagMappings(doc value.Value, mappings specdata.Mappings, tracker *lossiness.Tracker, providerName string) value.Value {
	for uniformFlag, providerPath := range mappings.FlagMappings {
		v, ok := value.GetPath(doc, splitDotted(uniformFlag))
		if !ok {
			continue
		}

		updated, err := value.SetPath(doc, splitDotted(providerPath), v)
		if err != nil {
			continue
		}

		doc = updated

		tracker.TrackTransformation(providerPath, lossiness.OpFieldMove, nil, v.ToAny(), "flag mapping "+uniformFlag, providerName, "flag:"+uniformFlag, 0)
	}

	return doc
}
