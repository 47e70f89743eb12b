package value

import "testing"

func TestObjectSetIsCopyOnWrite(t *testing.T) {
	base := ObjectFromPairs(KV{Key: "a", Value: Number(1)})
	next := base.Set("b", Number(2))

	if base.Len() != 1 {
		t.Fatalf("expected base to be unmodified, got len %d", base.Len())
	}

	if next.Len() != 2 {
		t.Fatalf("expected next to have 2 keys, got %d", next.Len())
	}

	if _, ok := base.Field("b"); ok {
		t.Fatalf("base should not see key set on next")
	}
}

func TestObjectKeyOrderPreserved(t *testing.T) {
	obj := ObjectFromPairs(
		KV{Key: "z", Value: Number(1)},
		KV{Key: "a", Value: Number(2)},
		KV{Key: "m", Value: Number(3)},
	)

	want := []string{"z", "a", "m"}
	got := obj.Keys()

	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(got))
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key order mismatch at %d: want %s got %s", i, want[i], got[i])
		}
	}
}

func TestEqual(t *testing.T) {
	a := ObjectFromPairs(KV{Key: "x", Value: Array(Number(1), Number(2))})
	b := ObjectFromPairs(KV{Key: "x", Value: Array(Number(1), Number(2))})

	if !Equal(a, b) {
		t.Fatalf("expected a == b")
	}

	c := a.Set("x", Array(Number(1), Number(3)))
	if Equal(a, c) {
		t.Fatalf("expected a != c")
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	original := ObjectFromPairs(
		KV{Key: "name", Value: String("gpt-5")},
		KV{Key: "temperature", Value: Number(0.7)},
		KV{Key: "tags", Value: Array(String("a"), String("b"))},
		KV{Key: "nested", Value: ObjectFromPairs(KV{Key: "ok", Value: Bool(true)})},
		KV{Key: "nothing", Value: Null()},
	)

	data, err := original.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Value
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !Equal(original, decoded) {
		t.Fatalf("round trip mismatch:\noriginal=%#v\ndecoded=%#v", original, decoded)
	}
}

func TestFromAnyAndToAny(t *testing.T) {
	in := map[string]any{
		"a": 1,
		"b": []any{"x", "y"},
		"c": map[string]any{"d": true},
	}

	v, err := FromAny(in)
	if err != nil {
		t.Fatalf("FromAny: %v", err)
	}

	back := v.ToAny()

	m, ok := back.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", back)
	}

	if m["a"] != float64(1) {
		t.Fatalf("expected a=1, got %v", m["a"])
	}
}

func TestSetPathCreatesIntermediates(t *testing.T) {
	root := Object()

	updated, err := SetPath(root, []string{"a", "b", "c"}, String("leaf"))
	if err != nil {
		t.Fatalf("SetPath: %v", err)
	}

	got, ok := GetPath(updated, []string{"a", "b", "c"})
	if !ok {
		t.Fatalf("expected path to resolve")
	}

	if s, _ := got.AsString(); s != "leaf" {
		t.Fatalf("expected leaf, got %v", got)
	}
}

func TestSetPathBlockedByNonObject(t *testing.T) {
	root := ObjectFromPairs(KV{Key: "a", Value: String("scalar")})

	_, err := SetPath(root, []string{"a", "b"}, String("leaf"))
	if err == nil {
		t.Fatalf("expected error when a non-object value blocks the path")
	}
}

func TestDeletePath(t *testing.T) {
	root, _ := SetPath(Object(), []string{"a", "b"}, Number(1))

	root = DeletePath(root, []string{"a", "b"})

	if _, ok := GetPath(root, []string{"a", "b"}); ok {
		t.Fatalf("expected path to be deleted")
	}
}

func TestJSONPointer(t *testing.T) {
	doc := ObjectFromPairs(
		KV{Key: "components", Value: ObjectFromPairs(
			KV{Key: "X", Value: ObjectFromPairs(KV{Key: "type", Value: String("object")})},
		)},
	)

	got, err := JSONPointer(doc, "/components/X")
	if err != nil {
		t.Fatalf("JSONPointer: %v", err)
	}

	if got.Len() != 1 {
		t.Fatalf("expected resolved object with 1 key, got %d", got.Len())
	}
}

func TestJSONPointerEscaping(t *testing.T) {
	doc := ObjectFromPairs(KV{Key: "a/b", Value: ObjectFromPairs(KV{Key: "c~d", Value: Number(42)})})

	got, err := JSONPointer(doc, "/a~1b/c~0d")
	if err != nil {
		t.Fatalf("JSONPointer: %v", err)
	}

	if n, _ := got.AsNumber(); n != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}
