package promptbridge

import (
	"github.com/kesh-io/promptbridge/lossiness"
	"github.com/kesh-io/promptbridge/specdata"
	"github.com/kesh-io/promptbridge/strictness"
	"github.com/kesh-io/promptbridge/value"
)

// clampFields lists the uniform sampling paths that carry a numeric range
// worth enforcing. top_k has no entry in fixedClampBounds: providers vary
// too widely on its legal range to guess one, so it's only clamped when
// Parameters supplies bounds.
var clampFields = []string{
	"$.sampling.temperature",
	"$.sampling.top_p",
	"$.sampling.top_k",
	"$.sampling.frequency_penalty",
	"$.sampling.presence_penalty",
}

// fixedClampBounds is the fallback range table used when a model's
// Parameters document doesn't give this field an explicit {min,max}.
// Grounded on the OpenAI Responses API's own documented ranges (temperature
// and top_p in [0,2]/[0,1]; frequency/presence penalty in [-2,2]).
var fixedClampBounds = map[string][2]float64{
	"temperature":       {0, 2},
	"top_p":             {0, 1},
	"frequency_penalty": {-2, 2},
	"presence_penalty":  {-2, 2},
}

// applyNumericClamps enforces range constraints on the sampling fields of
// the (already transformed) provider body, per spec.md §4.6's clamping
// site. Bounds come from the model's own Parameters document when it
// declares an entry of the form {"min": n, "max": n} for the field, falling
// back to fixedClampBounds otherwise.
func applyNumericClamps(doc value.Value, mappings specdata.Mappings, params map[string]any, mode strictness.Mode, tracker *lossiness.Tracker) value.Value {
	for _, uniform := range clampFields {
		providerPath := providerPathFor(mappings, uniform)
		segs := splitDotted(providerPath)

		v, ok := value.GetPath(doc, segs)
		if !ok || !v.IsNumber() {
			continue
		}

		n, _ := v.AsNumber()

		min, max, ok := clampBoundsFor(lastDottedSegment(uniform), params)
		if !ok {
			continue
		}

		decision := strictness.ValueClamp(providerPath, n, min, max, mode, nil)
		if decision.Item == nil {
			continue
		}

		tracker.Add(lossiness.Item{
			Code:     decision.Item.Code,
			Path:     providerPath,
			Message:  decision.Item.Message,
			Severity: decision.Item.Severity,
			Before:   decision.Item.Before,
			After:    decision.Item.After,
		})

		if after, ok := decision.Item.After.(float64); ok {
			if updated, err := value.SetPath(doc, segs, value.Number(after)); err == nil {
				doc = updated
			}
		}
	}

	return doc
}

func clampBoundsFor(field string, params map[string]any) (float64, float64, bool) {
	if raw, ok := params[field]; ok {
		if obj, ok := raw.(map[string]any); ok {
			minV, hasMin := toFloat(obj["min"])
			maxV, hasMax := toFloat(obj["max"])

			if hasMin && hasMax {
				return minV, maxV, true
			}
		}
	}

	if bounds, ok := fixedClampBounds[field]; ok {
		return bounds[0], bounds[1], true
	}

	return 0, 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// providerPathFor returns the provider-side path a uniform sampling field
// maps to, so clamping inspects the transformed value (matching spec.md
// §8's "after unit conversion" ordering), falling back to the uniform
// path's own dotted form for models that declare no explicit mapping for
// that field (i.e. it passes through unchanged).
func providerPathFor(mappings specdata.Mappings, uniform string) string {
	for _, pm := range mappings.Paths {
		if pm.UniformPath == uniform {
			return pm.ProviderPath
		}
	}

	segs := splitDotted(uniform)

	out := segs[0]
	for _, seg := range segs[1:] {
		out += "." + seg
	}

	return out
}
