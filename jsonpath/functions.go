package jsonpath

import (
	"sync"

	"github.com/kesh-io/promptbridge/value"
)

// Function is a filter-expression function like length(@.tags). It receives
// the already-evaluated argument values and returns a single result value.
type Function func(args []value.Value) (value.Value, error)

var (
	funcMu    sync.RWMutex
	functions = map[string]Function{
		"length": fnLength,
		"size":   fnLength,
		"type":   fnType,
		"keys":   fnKeys,
		"values": fnValues,
	}
)

// RegisterFunction adds (or replaces) a custom filter function available to
// every subsequently compiled expression, by name, from any goroutine.
func RegisterFunction(name string, fn Function) {
	funcMu.Lock()
	defer funcMu.Unlock()

	functions[name] = fn
}

func lookupFunction(name string) (Function, bool) {
	funcMu.RLock()
	defer funcMu.RUnlock()

	fn, ok := functions[name]

	return fn, ok
}

func fnLength(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, functionErr("length: expected 1 argument, got %d", len(args))
	}

	switch args[0].Kind() {
	case value.KindString:
		s, _ := args[0].AsString()
		return value.Number(float64(len([]rune(s)))), nil
	case value.KindArray:
		arr, _ := args[0].AsArray()
		return value.Number(float64(len(arr))), nil
	case value.KindObject:
		return value.Number(float64(args[0].Len())), nil
	case value.KindNull:
		return value.Number(0), nil
	default:
		return value.Value{}, functionErr("length: unsupported argument kind %s", args[0].Kind())
	}
}

func fnType(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, functionErr("type: expected 1 argument, got %d", len(args))
	}

	return value.String(args[0].Kind().String()), nil
}

func fnKeys(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, functionErr("keys: expected 1 argument, got %d", len(args))
	}

	if args[0].Kind() != value.KindObject {
		return value.Value{}, typeMismatchErr("keys: expected object, got %s", args[0].Kind())
	}

	keys := args[0].Keys()
	items := make([]value.Value, len(keys))

	for i, k := range keys {
		items[i] = value.String(k)
	}

	return value.Array(items...), nil
}

func fnValues(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, functionErr("values: expected 1 argument, got %d", len(args))
	}

	if args[0].Kind() != value.KindObject {
		return value.Value{}, typeMismatchErr("values: expected object, got %s", args[0].Kind())
	}

	keys := args[0].Keys()
	items := make([]value.Value, len(keys))

	for i, k := range keys {
		v, _ := args[0].Field(k)
		items[i] = v
	}

	return value.Array(items...), nil
}
