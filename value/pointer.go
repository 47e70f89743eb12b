package value

import (
	"fmt"
	"strconv"
	"strings"
)

// JSONPointer resolves an RFC-6901 JSON pointer (e.g. "/components/X") against
// v, applying the standard ~0/~1 escaping rules (~1 -> "/", ~0 -> "~").
// The empty pointer "" returns v itself; "/" addresses the property whose
// name is the empty string.
func JSONPointer(v Value, pointer string) (Value, error) {
	if pointer == "" {
		return v, nil
	}

	if !strings.HasPrefix(pointer, "/") {
		return Value{}, fmt.Errorf("value: JSON pointer must start with '/': %q", pointer)
	}

	segments := strings.Split(pointer, "/")[1:]
	current := v

	for _, raw := range segments {
		seg := unescapePointerSegment(raw)

		switch current.Kind() {
		case KindObject:
			val, ok := current.Field(seg)
			if !ok {
				return Value{}, fmt.Errorf("value: property %q not found", seg)
			}

			current = val
		case KindArray:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return Value{}, fmt.Errorf("value: invalid array index %q", seg)
			}

			arr, _ := current.AsArray()
			if idx < 0 || idx >= len(arr) {
				return Value{}, fmt.Errorf("value: array index %d out of bounds", idx)
			}

			current = arr[idx]
		default:
			return Value{}, fmt.Errorf("value: cannot access property %q on a %s", seg, current.Kind())
		}
	}

	return current, nil
}

func unescapePointerSegment(seg string) string {
	seg = strings.ReplaceAll(seg, "~1", "/")
	seg = strings.ReplaceAll(seg, "~0", "~")

	return seg
}

// SetPath implements the transform pipeline's "set-at-path semantics"
// (spec.md §4.4): a dotted path like "$.a.b.c" creates missing intermediate
// objects; if a non-object value blocks the path, it returns an error
// (the caller wraps it as a Translation error).
//
// The path must already have its "$." (or "$") root prefix stripped by the
// caller; SetPath only walks the dotted segments after the root.
func SetPath(root Value, segments []string, val Value) (Value, error) {
	if len(segments) == 0 {
		return val, nil
	}

	head, rest := segments[0], segments[1:]

	var child Value

	if root.Kind() == KindObject {
		if existing, ok := root.Field(head); ok {
			child = existing
		} else {
			child = Object()
		}
	} else if root.IsNull() {
		child = Object()
	} else {
		return Value{}, fmt.Errorf("value: cannot set path segment %q: blocked by non-object value", head)
	}

	newChild, err := SetPath(child, rest, val)
	if err != nil {
		return Value{}, err
	}

	base := root
	if base.Kind() != KindObject {
		base = Object()
	}

	return base.Set(head, newChild), nil
}

// GetPath walks dotted segments (no root prefix) returning the value found,
// or ok=false if any segment is missing.
func GetPath(root Value, segments []string) (Value, bool) {
	current := root

	for _, seg := range segments {
		switch current.Kind() {
		case KindObject:
			next, ok := current.Field(seg)
			if !ok {
				return Value{}, false
			}

			current = next
		case KindArray:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return Value{}, false
			}

			arr, _ := current.AsArray()
			if idx < 0 || idx >= len(arr) {
				return Value{}, false
			}

			current = arr[idx]
		default:
			return Value{}, false
		}
	}

	return current, true
}

// DeletePath removes the value at the dotted segments, returning the
// modified root. Missing segments are a no-op.
func DeletePath(root Value, segments []string) Value {
	if len(segments) == 0 {
		return root
	}

	if root.Kind() != KindObject {
		return root
	}

	head, rest := segments[0], segments[1:]

	if len(rest) == 0 {
		return root.Delete(head)
	}

	child, ok := root.Field(head)
	if !ok {
		return root
	}

	return root.Set(head, DeletePath(child, rest))
}
