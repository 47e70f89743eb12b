package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// MarshalJSON renders v as standard JSON, preserving object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		enc, err := json.Marshal(v.n)
		if err != nil {
			return err
		}

		buf.Write(enc)
	case KindString:
		enc, err := json.Marshal(v.s)
		if err != nil {
			return err
		}

		buf.Write(enc)
	case KindArray:
		buf.WriteByte('[')

		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := item.encode(buf); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')

		for i, k := range v.obj.keys() {
			if i > 0 {
				buf.WriteByte(',')
			}

			keyEnc, err := json.Marshal(k)
			if err != nil {
				return err
			}

			buf.Write(keyEnc)
			buf.WriteByte(':')

			val, _ := v.obj.get(k)
			if err := val.encode(buf); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	default:
		return fmt.Errorf("value: unknown kind %v", v.kind)
	}

	return nil
}

// UnmarshalJSON decodes standard JSON into v, preserving object key order
// using json.Decoder's token stream (encoding/json's default map decoding
// would lose order).
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	val, err := decodeValue(dec)
	if err != nil {
		return err
	}

	*v = val

	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("value: invalid number %q: %w", t, err)
		}

		return Number(f), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value

			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}

				items = append(items, item)
			}

			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}

			return Array(items...), nil
		case '{':
			m := newOrderedMap()

			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}

				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("value: expected string object key, got %v", keyTok)
				}

				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}

				m.set(key, val)
			}

			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}

			return Value{kind: KindObject, obj: m}, nil
		default:
			return Value{}, fmt.Errorf("value: unexpected delimiter %v", t)
		}
	default:
		return Value{}, fmt.Errorf("value: unexpected token %v (%T)", tok, tok)
	}
}

// FromAny converts a Go value produced by decoding JSON/YAML/TOML into the
// generic interface{} form (maps, slices, strings, numbers, bools, nil) into
// a Value tree. It accepts the typical shapes gopkg.in/yaml.v3 and
// BurntSushi/toml produce (map[string]any / map[any]any, []any, and the
// scalar kinds), normalizing both into the same canonical tree.
func FromAny(in any) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case float64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("value: invalid number %q: %w", t, err)
		}

		return Number(f), nil
	case []any:
		items := make([]Value, 0, len(t))

		for _, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}

			items = append(items, v)
		}

		return Array(items...), nil
	case map[string]any:
		return fromStringMap(t)
	case map[any]any:
		strMap := make(map[string]any, len(t))

		var order []string

		for k, val := range t {
			ks := fmt.Sprintf("%v", k)
			strMap[ks] = val

			order = append(order, ks)
		}

		sort.Strings(order)

		return fromStringMapOrdered(strMap, order)
	default:
		return Value{}, fmt.Errorf("value: unsupported Go type %T", in)
	}
}

func fromStringMap(m map[string]any) (Value, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	// Go map iteration order is random; sorting keeps the result deterministic.
	sort.Strings(keys)

	return fromStringMapOrdered(m, keys)
}

func fromStringMapOrdered(m map[string]any, order []string) (Value, error) {
	om := newOrderedMap()

	for _, k := range order {
		v, err := FromAny(m[k])
		if err != nil {
			return Value{}, err
		}

		om.set(k, v)
	}

	return Value{kind: KindObject, obj: om}, nil
}

// ToAny converts v back into plain Go interface{} form (map[string]any,
// []any, string, float64, bool, nil) for callers that need to interoperate
// with code expecting encoding/json's native decode shape.
func (v Value) ToAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.ToAny()
		}

		return out
	case KindObject:
		out := make(map[string]any, v.obj.len())
		for _, k := range v.obj.keys() {
			val, _ := v.obj.get(k)
			out[k] = val.ToAny()
		}

		return out
	default:
		return nil
	}
}
