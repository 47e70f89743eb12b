package jsonpath

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kesh-io/promptbridge/value"
)

// IsSimplePropertyPath reports whether expr consists solely of Root and
// Property selectors (no wildcards, filters, slices, or recursive descent).
// Such expressions can be evaluated directly against raw JSON bytes via
// gjson without walking the general applySelector loop; Compiled.run
// dispatches through this fast path automatically.
func (e *Expression) IsSimplePropertyPath() bool {
	for _, sel := range e.Selectors {
		if sel.Kind != SelKindRoot && sel.Kind != SelKindProperty {
			return false
		}
	}

	return true
}

// GJSONPath renders a simple property-only expression into gjson's dotted
// path syntax. The caller must first confirm IsSimplePropertyPath.
func (e *Expression) GJSONPath() string {
	var parts []string

	for _, sel := range e.Selectors {
		if sel.Kind == SelKindProperty {
			// Escape gjson's path metacharacters so each name is read literally.
			var sb strings.Builder

			for _, r := range sel.Name {
				if strings.ContainsRune(`.*?|#@\`, r) {
					sb.WriteByte('\\')
				}

				sb.WriteRune(r)
			}

			parts = append(parts, sb.String())
		}
	}

	return strings.Join(parts, ".")
}

// FastExists evaluates a simple property path directly against raw JSON
// bytes using gjson, skipping the value.Value tree and the general
// executor. It returns false (no error) for expressions that are not
// simple property paths; callers should check IsSimplePropertyPath first if
// they need to distinguish "not simple" from "not found".
func FastExists(raw []byte, expr *Expression) bool {
	if !expr.IsSimplePropertyPath() {
		return false
	}

	return gjson.GetBytes(raw, expr.GJSONPath()).Exists()
}

// fastLookup is Compiled.run's dispatch target for simple property paths:
// it serializes doc once and resolves the whole property chain in a single
// gjson call rather than walking applySelector per selector. The caller
// must already have confirmed expr.IsSimplePropertyPath.
func fastLookup(doc value.Value, expr *Expression) (value.Value, bool, error) {
	path := expr.GJSONPath()
	if path == "" {
		return doc, true, nil
	}

	raw, err := doc.MarshalJSON()
	if err != nil {
		return value.Value{}, false, err
	}

	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return value.Value{}, false, nil
	}

	v, err := value.FromAny(res.Value())
	if err != nil {
		return value.Value{}, false, err
	}

	return v, true, nil
}
