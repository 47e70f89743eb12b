package jsonpath

// OptimizerConfig selects which rewrite passes optimize runs. original_source's
// optimizer.rs also has constant_folding and selector_fusion passes; those
// are not implemented here (see the jsonpath design-ledger entry) so this
// config only exposes the two passes optimize actually performs.
type OptimizerConfig struct {
	EliminateRedundantRoot bool
	CollapseSingleUnion    bool
}

// DefaultOptimizerConfig enables every pass; Compile uses this unless the
// caller passes its own CompileOptions.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		EliminateRedundantRoot: true,
		CollapseSingleUnion:    true,
	}
}

// optimize returns a rewritten copy of expr according to cfg; expr itself is
// not modified. It never changes the semantics of the expression, only its
// shape: redundant leading Root selectors beyond the first are dropped, and
// single-member unions collapse to the plain selector they wrap.
func optimize(expr *Expression, cfg OptimizerConfig) *Expression {
	selectors := expr.Selectors

	if cfg.EliminateRedundantRoot {
		selectors = eliminateRedundantRoot(selectors)
	}

	if cfg.CollapseSingleUnion {
		selectors = collapseSingleUnions(selectors)
	}

	return &Expression{Selectors: selectors}
}

func eliminateRedundantRoot(selectors []Selector) []Selector {
	if len(selectors) == 0 {
		return selectors
	}

	out := []Selector{selectors[0]}

	for _, sel := range selectors[1:] {
		if sel.Kind == SelKindRoot {
			continue
		}

		out = append(out, sel)
	}

	return out
}

func collapseSingleUnions(selectors []Selector) []Selector {
	out := make([]Selector, len(selectors))

	for i, sel := range selectors {
		if sel.Kind == SelKindUnion && len(sel.Members) == 1 {
			out[i] = sel.Members[0]
			continue
		}

		out[i] = sel
	}

	return out
}

// complexityScore is a rough cost estimate surfaced in ExecutionMetadata,
// grounded on original_source's optimizer.rs complexity heuristic: each
// selector contributes a fixed weight, with recursive descent and filter
// selectors weighted heavier since they may visit the whole subtree.
func complexityScore(expr *Expression) int {
	score := 0

	for _, sel := range expr.Selectors {
		switch sel.Kind {
		case SelKindRecursiveDescent:
			score += 10
		case SelKindFilter:
			score += 5
		case SelKindWildcard, SelKindSlice:
			score += 3
		case SelKindUnion:
			score += 2 * len(sel.Members)
		default:
			score++
		}
	}

	return score
}
