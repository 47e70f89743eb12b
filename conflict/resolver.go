// Package conflict implements the mutually-exclusive field resolver
// described in spec.md §4.5: for each group of fields a model declares
// mutually exclusive, detect which are present in the request and pick a
// winner by the model's configured strategy.
package conflict

import (
	"sort"
	"sync"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/internal/log"
	"github.com/kesh-io/promptbridge/specdata"
	"github.com/kesh-io/promptbridge/value"
)

// Outcome is the result of resolving one mutually-exclusive group.
type Outcome struct {
	Group  specdata.MutuallyExclusiveGroup
	Winner string
	Losers []string
}

// StrategyFunc picks a winner path among the present paths of one group.
// present lists the group's paths that exist in doc in the order the group
// declares them, not in the order of the keys in doc; FirstWins and LastWins
// use the same order. Returning ok=false means the function cannot decide;
// the resolver then logs a warning and falls back to the first present path.
type StrategyFunc func(group specdata.MutuallyExclusiveGroup, present []string, doc value.Value) (winner string, ok bool)

var (
	registryMu sync.RWMutex
	registry   = map[string]StrategyFunc{}
)

// RegisterStrategy registers a Custom(tag) resolution strategy, available
// to every subsequent call to Resolve.
func RegisterStrategy(tag string, fn StrategyFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[tag] = fn
}

func lookupStrategy(tag string) (StrategyFunc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	fn, ok := registry[tag]

	return fn, ok
}

// Resolve walks every group in constraints.MutuallyExclusive, determines
// which of its paths are present in doc (dot-separated, resolved via
// value.GetPath), and picks a winner per the group's configured strategy.
// It returns one Outcome per group that actually had a conflict (|present|
// >= 2); groups with 0 or 1 present fields produce no outcome.
func Resolve(constraints specdata.Constraints, doc value.Value) ([]Outcome, error) {
	var outcomes []Outcome

	for _, group := range constraints.MutuallyExclusive {
		present := presentPaths(group.Paths, doc)
		if len(present) < 2 {
			continue
		}

		winner, err := pickWinner(group, present, doc, constraints.ResolutionPreferences)
		if err != nil {
			return outcomes, err
		}

		losers := make([]string, 0, len(present)-1)

		for _, p := range present {
			if p != winner {
				losers = append(losers, p)
			}
		}

		outcomes = append(outcomes, Outcome{Group: group, Winner: winner, Losers: losers})
	}

	return outcomes, nil
}

func presentPaths(paths []string, doc value.Value) []string {
	var present []string

	for _, p := range paths {
		segs := splitDotted(p)

		if _, ok := value.GetPath(doc, segs); ok {
			present = append(present, p)
		}
	}

	return present
}

func pickWinner(group specdata.MutuallyExclusiveGroup, present []string, doc value.Value, preferences []string) (string, error) {
	switch specdata.ConflictStrategy(group.Strategy) {
	case specdata.ConflictPreferenceOrder:
		for _, pref := range preferences {
			if contains(present, pref) {
				return pref, nil
			}
		}

		return present[0], nil
	case specdata.ConflictFirstWins, "":
		return present[0], nil
	case specdata.ConflictLastWins:
		return present[len(present)-1], nil
	case specdata.ConflictMostSpecific:
		return mostSpecific(present, doc), nil
	case specdata.ConflictFail:
		return "", bridgeerr.New(bridgeerr.KindTransformationError, "mutually exclusive group has a Fail strategy and multiple fields are present").WithPath(present[0])
	default:
		if fn, ok := lookupStrategy(group.Strategy); ok {
			winner, ok := fn(group, present, doc)
			if ok {
				return winner, nil
			}
		}

		log.Warn("unrecognized Custom conflict strategy tag, falling back to FirstWins", log.String("tag", group.Strategy))

		return present[0], nil
	}
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}

	return false
}

// specificity implements the exact formula from spec.md §4.5: Null=1,
// Bool=2, Number=3, String=4+len, Array=5+10*len, Object=6+20*len.
func specificity(v value.Value) int {
	switch v.Kind() {
	case value.KindNull:
		return 1
	case value.KindBool:
		return 2
	case value.KindNumber:
		return 3
	case value.KindString:
		s, _ := v.AsString()
		return 4 + len(s)
	case value.KindArray:
		return 5 + 10*v.Len()
	case value.KindObject:
		return 6 + 20*v.Len()
	default:
		return 0
	}
}

func mostSpecific(present []string, doc value.Value) string {
	sorted := make([]string, len(present))
	copy(sorted, present)

	sort.SliceStable(sorted, func(i, j int) bool {
		vi, _ := value.GetPath(doc, splitDotted(sorted[i]))
		vj, _ := value.GetPath(doc, splitDotted(sorted[j]))

		return specificity(vi) > specificity(vj)
	})

	return sorted[0]
}

func splitDotted(path string) []string {
	trimmed := path
	if len(trimmed) > 1 && trimmed[0] == '$' && trimmed[1] == '.' {
		trimmed = trimmed[2:]
	}

	var segs []string

	start := 0

	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] == '.' {
			segs = append(segs, trimmed[start:i])
			start = i + 1
		}
	}

	segs = append(segs, trimmed[start:])

	return segs
}

// Apply removes every loser path from doc for each outcome, returning the
// updated document. Callers (the orchestrator) are responsible for turning
// each Outcome into lossiness items via strictness.ConflictDecision.
func Apply(doc value.Value, outcomes []Outcome) value.Value {
	for _, outcome := range outcomes {
		for _, loser := range outcome.Losers {
			doc = value.DeletePath(doc, splitDotted(loser))
		}
	}

	return doc
}
