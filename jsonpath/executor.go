package jsonpath

import (
	"time"

	"github.com/kesh-io/promptbridge/value"
)

// DefaultMaxDepth bounds recursive-descent traversal so a pathological
// document (or a cyclic one, though value.Value trees cannot cycle) cannot
// exhaust the stack.
const DefaultMaxDepth = 100

// ExecutionMetadata is returned alongside results by ExecuteWithMetadata,
// giving callers (principally the lossiness tracker) visibility into how
// expensive a given path evaluation was.
type ExecutionMetadata struct {
	ComplexityScore int
	ResultCount     int
	Elapsed         time.Duration
	SelectorsVisited int
	RegexEngine     string
}

// CompileOptions controls Compile's optimizer passes and depth limit.
type CompileOptions struct {
	Optimizer OptimizerConfig
	MaxDepth  int
}

// DefaultCompileOptions returns the options Compile uses when called via the
// package-level Execute helpers.
func DefaultCompileOptions() CompileOptions {
	return CompileOptions{Optimizer: DefaultOptimizerConfig(), MaxDepth: DefaultMaxDepth}
}

// Compiled is a parsed, optimized JSONPath expression ready for repeated
// execution against different documents.
type Compiled struct {
	expr     *Expression
	maxDepth int
	score    int
}

// Compile parses, optimizes, and prepares path for execution.
func Compile(path string, opts ...CompileOptions) (*Compiled, error) {
	cfg := DefaultCompileOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}

	parsed, err := Parse(path)
	if err != nil {
		return nil, err
	}

	optimized := optimize(parsed, cfg.Optimizer)

	return &Compiled{expr: optimized, maxDepth: cfg.MaxDepth, score: complexityScore(optimized)}, nil
}

// Execute runs the compiled expression against doc, returning every matched
// value in document order.
func (c *Compiled) Execute(doc value.Value) ([]value.Value, error) {
	results, _, err := c.run(doc, false, 0)
	return results, err
}

// ExecuteFirst runs the compiled expression but stops at the first match,
// short-circuiting traversal (used by Exists and single-value lookups).
func (c *Compiled) ExecuteFirst(doc value.Value) (value.Value, bool, error) {
	results, _, err := c.run(doc, true, 0)
	if err != nil {
		return value.Value{}, false, err
	}

	if len(results) == 0 {
		return value.Value{}, false, nil
	}

	return results[0], true, nil
}

// Exists reports whether path matches at least one node in doc.
func (c *Compiled) Exists(doc value.Value) (bool, error) {
	_, ok, err := c.ExecuteFirst(doc)
	return ok, err
}

// ExecuteWithMetadata runs the expression and additionally reports timing
// and complexity metadata for instrumentation/tracing.
func (c *Compiled) ExecuteWithMetadata(doc value.Value) ([]value.Value, ExecutionMetadata, error) {
	start := time.Now()

	results, visited, err := c.run(doc, false, 0)

	meta := ExecutionMetadata{
		ComplexityScore:  c.score,
		ResultCount:      len(results),
		Elapsed:          time.Since(start),
		SelectorsVisited: visited,
		RegexEngine:      "regexp2",
	}

	return results, meta, err
}

// limitedRun carries one run's traversal state: the first-match flag set by
// ExecuteFirst and the count of selector applications reported in
// ExecutionMetadata. Its limit field is not consulted; every run collects
// all matches.
type limitedRun struct {
	limit     int
	firstOnly bool
	visited   int
}

func (c *Compiled) run(doc value.Value, firstOnly bool, limit int) ([]value.Value, int, error) {
	lr := &limitedRun{limit: limit, firstOnly: firstOnly}

	if c.expr.IsSimplePropertyPath() {
		lr.visited = len(c.expr.Selectors)

		result, found, err := fastLookup(doc, c.expr)
		if err != nil {
			return nil, lr.visited, err
		}

		if !found {
			return nil, lr.visited, nil
		}

		return []value.Value{result}, lr.visited, nil
	}

	nodes := []value.Value{doc}

	for i, sel := range c.expr.Selectors {
		var err error

		// Only the last selector may stop at its first match; earlier ones
		// must pass every candidate on.
		lr.firstOnly = firstOnly && i == len(c.expr.Selectors)-1

		nodes, err = applySelector(sel, nodes, doc, c.maxDepth, 0, lr)
		if err != nil {
			return nil, lr.visited, err
		}
	}

	return nodes, lr.visited, nil
}

func applySelector(sel Selector, nodes []value.Value, root value.Value, maxDepth, depth int, lr *limitedRun) ([]value.Value, error) {
	if depth > maxDepth {
		return nil, executionErr("max traversal depth %d exceeded", maxDepth)
	}

	var out []value.Value

	for _, n := range nodes {
		lr.visited++

		matched, err := applySelectorToNode(sel, n, root, maxDepth, depth, lr)
		if err != nil {
			return nil, err
		}

		out = append(out, matched...)

		if lr.firstOnly && len(out) > 0 {
			return out, nil
		}
	}

	return out, nil
}

func applySelectorToNode(sel Selector, n, root value.Value, maxDepth, depth int, lr *limitedRun) ([]value.Value, error) {
	switch sel.Kind {
	case SelKindRoot:
		return []value.Value{root}, nil
	case SelKindProperty:
		if n.Kind() != value.KindObject {
			return nil, nil
		}

		v, ok := n.Field(sel.Name)
		if !ok {
			return nil, nil
		}

		return []value.Value{v}, nil
	case SelKindIndex:
		return indexInto(n, sel.Index), nil
	case SelKindIndexList:
		var out []value.Value
		for _, idx := range sel.Indices {
			out = append(out, indexInto(n, idx)...)
		}

		return out, nil
	case SelKindSlice:
		return sliceInto(n, sel), nil
	case SelKindWildcard:
		return wildcardInto(n), nil
	case SelKindRecursiveDescent:
		return recursiveDescent(n, maxDepth, depth)
	case SelKindUnion:
		var out []value.Value
		for _, member := range sel.Members {
			matched, err := applySelectorToNode(member, n, root, maxDepth, depth, lr)
			if err != nil {
				return nil, err
			}

			out = append(out, matched...)
		}

		return out, nil
	case SelKindFilter:
		return filterInto(sel.Filter, n, root)
	default:
		return nil, executionErr("unknown selector kind")
	}
}

func indexInto(n value.Value, idx int) []value.Value {
	if n.Kind() != value.KindArray {
		return nil
	}

	arr, _ := n.AsArray()

	if idx < 0 {
		idx += len(arr)
	}

	if idx < 0 || idx >= len(arr) {
		return nil
	}

	return []value.Value{arr[idx]}
}

func sliceInto(n value.Value, sel Selector) []value.Value {
	if n.Kind() != value.KindArray {
		return nil
	}

	arr, _ := n.AsArray()
	length := len(arr)

	step := 1
	if sel.SliceStep != nil {
		step = *sel.SliceStep
	}

	if step == 0 {
		return nil
	}

	start, end := sliceBounds(sel.SliceStart, sel.SliceEnd, length, step)

	var out []value.Value

	if step > 0 {
		for i := start; i < end; i += step {
			if i >= 0 && i < length {
				out = append(out, arr[i])
			}
		}
	} else {
		for i := start; i > end; i += step {
			if i >= 0 && i < length {
				out = append(out, arr[i])
			}
		}
	}

	return out
}

func sliceBounds(startP, endP *int, length, step int) (int, int) {
	var start, end int

	if step > 0 {
		start, end = 0, length

		if startP != nil {
			start = normalizeSliceIndex(*startP, length)
		}

		if endP != nil {
			end = normalizeSliceIndex(*endP, length)
		}
	} else {
		start, end = length-1, -1

		if startP != nil {
			start = normalizeSliceIndex(*startP, length)
		}

		if endP != nil {
			end = normalizeSliceIndex(*endP, length)
		}
	}

	return start, end
}

func normalizeSliceIndex(idx, length int) int {
	if idx < 0 {
		idx += length
	}

	return idx
}

func wildcardInto(n value.Value) []value.Value {
	switch n.Kind() {
	case value.KindArray:
		arr, _ := n.AsArray()
		return arr
	case value.KindObject:
		keys := n.Keys()
		out := make([]value.Value, 0, len(keys))

		for _, k := range keys {
			v, _ := n.Field(k)
			out = append(out, v)
		}

		return out
	default:
		return nil
	}
}

func recursiveDescent(n value.Value, maxDepth, depth int) ([]value.Value, error) {
	if depth > maxDepth {
		return nil, executionErr("max traversal depth %d exceeded", maxDepth)
	}

	out := []value.Value{n}

	switch n.Kind() {
	case value.KindArray:
		arr, _ := n.AsArray()
		for _, item := range arr {
			children, err := recursiveDescent(item, maxDepth, depth+1)
			if err != nil {
				return nil, err
			}

			out = append(out, children...)
		}
	case value.KindObject:
		for _, k := range n.Keys() {
			v, _ := n.Field(k)

			children, err := recursiveDescent(v, maxDepth, depth+1)
			if err != nil {
				return nil, err
			}

			out = append(out, children...)
		}
	}

	return out, nil
}

func filterInto(f FilterExpr, n, root value.Value) ([]value.Value, error) {
	var candidates []value.Value

	switch n.Kind() {
	case value.KindArray:
		candidates, _ = n.AsArray()
	case value.KindObject:
		for _, k := range n.Keys() {
			v, _ := n.Field(k)
			candidates = append(candidates, v)
		}
	default:
		return nil, nil
	}

	var out []value.Value

	for _, c := range candidates {
		result, err := evalFilter(f, c, root)
		if err != nil {
			return nil, err
		}

		if truthy(result) {
			out = append(out, c)
		}
	}

	return out, nil
}
