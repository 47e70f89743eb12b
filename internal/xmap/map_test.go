package xmap

import "testing"

func TestMapLoadStore(t *testing.T) {
	m := New[string, int]()

	if _, ok := m.Load("a"); ok {
		t.Fatalf("expected miss on empty map")
	}

	m.Store("a", 1)

	v, ok := m.Load("a")
	if !ok || v != 1 {
		t.Fatalf("expected (1, true), got (%d, %v)", v, ok)
	}

	actual, loaded := m.LoadOrStore("a", 2)
	if !loaded || actual != 1 {
		t.Fatalf("expected existing value to win, got (%d, %v)", actual, loaded)
	}

	actual, loaded = m.LoadOrStore("b", 2)
	if loaded || actual != 2 {
		t.Fatalf("expected stored value, got (%d, %v)", actual, loaded)
	}

	count := 0
	m.Range(func(string, int) bool {
		count++
		return true
	})

	if count != 2 {
		t.Fatalf("expected 2 entries, got %d", count)
	}

	m.Delete("a")
	if _, ok := m.Load("a"); ok {
		t.Fatalf("expected a to be deleted")
	}

	m.Clear()
	if _, ok := m.Load("b"); ok {
		t.Fatalf("expected map to be cleared")
	}
}
