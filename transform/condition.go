package transform

import (
	"github.com/kesh-io/promptbridge/internal/xregexp"
	"github.com/kesh-io/promptbridge/jsonpath"
	"github.com/kesh-io/promptbridge/value"
)

// Condition is the closed sum type for the pipeline's condition language
// (spec.md §4.4): Equals, Exists, Matches, And, Or, Not. Paths here are
// JSONPath into the document root, not the current value, and share the
// pipeline's compiled-path cache.
type Condition interface {
	conditionMarker()
	evaluate(doc value.Value, cache *pathCache) (bool, error)
}

// Equals is true when the value at Path equals Value.
type Equals struct {
	Path  string
	Value value.Value
}

func (Equals) conditionMarker() {}

func (c Equals) evaluate(doc value.Value, cache *pathCache) (bool, error) {
	compiled, err := cache.compile(c.Path)
	if err != nil {
		return false, err
	}

	results, err := compiled.Execute(doc)
	if err != nil {
		return false, err
	}

	if len(results) == 0 {
		return false, nil
	}

	return value.Equal(results[0], c.Value), nil
}

// Exists is true when Path resolves to at least one node.
type Exists struct {
	Path string
}

func (Exists) conditionMarker() {}

func (c Exists) evaluate(doc value.Value, cache *pathCache) (bool, error) {
	compiled, err := cache.compile(c.Path)
	if err != nil {
		return false, err
	}

	return compiled.Exists(doc)
}

// Matches is true when the string value at Path matches Pattern (a regex,
// evaluated through the shared xregexp pattern cache).
type Matches struct {
	Path    string
	Pattern string
}

func (Matches) conditionMarker() {}

func (c Matches) evaluate(doc value.Value, cache *pathCache) (bool, error) {
	compiled, err := cache.compile(c.Path)
	if err != nil {
		return false, err
	}

	results, err := compiled.Execute(doc)
	if err != nil {
		return false, err
	}

	if len(results) == 0 {
		return false, nil
	}

	s, ok := results[0].AsString()
	if !ok {
		return false, nil
	}

	return xregexp.MatchString(c.Pattern, s), nil
}

// And is true when every sub-condition is true (short-circuits).
type And []Condition

func (And) conditionMarker() {}

func (a And) evaluate(doc value.Value, cache *pathCache) (bool, error) {
	for _, c := range a {
		ok, err := c.evaluate(doc, cache)
		if err != nil {
			return false, err
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

// Or is true when any sub-condition is true (short-circuits).
type Or []Condition

func (Or) conditionMarker() {}

func (o Or) evaluate(doc value.Value, cache *pathCache) (bool, error) {
	for _, c := range o {
		ok, err := c.evaluate(doc, cache)
		if err != nil {
			return false, err
		}

		if ok {
			return true, nil
		}
	}

	return false, nil
}

// Not negates its sub-condition.
type Not struct {
	Condition Condition
}

func (Not) conditionMarker() {}

func (n Not) evaluate(doc value.Value, cache *pathCache) (bool, error) {
	ok, err := n.Condition.evaluate(doc, cache)
	if err != nil {
		return false, err
	}

	return !ok, nil
}

// pathCache is the pipeline's per-call JSONPath compile cache (spec.md §5:
// "each pipeline owns a per-call JSONPath compile cache keyed by the source
// text"). It is not safe for concurrent use across goroutines since rules
// execute serially within one Pipeline.Execute call.
type pathCache struct {
	compiled map[string]*jsonpath.Compiled
}

func newPathCache() *pathCache {
	return &pathCache{compiled: make(map[string]*jsonpath.Compiled)}
}

func (c *pathCache) compile(path string) (*jsonpath.Compiled, error) {
	if existing, ok := c.compiled[path]; ok {
		return existing, nil
	}

	compiled, err := jsonpath.Compile(path)
	if err != nil {
		return nil, err
	}

	c.compiled[path] = compiled

	return compiled, nil
}
