package lossiness

import "github.com/samber/lo"

// Action is the overall outcome of one translate() call (spec.md §6): what
// the caller should take away about how faithfully the document survived.
type Action string

const (
	ActionOk      Action = "Ok"
	ActionCoerced Action = "Coerced"
	ActionWarned  Action = "Warned"
	ActionFailed  Action = "Failed"
)

// Report is the immutable snapshot handed back to a caller once translation
// finishes: every item and transformation recorded along the way, per-path
// timing, the summary statistics, and the action taken. Unlike Tracker it
// has no mutex — it's a value, safe to pass around and compare.
type Report struct {
	Items   []Item
	Records []TransformationRecord
	Timing  map[string]Timing
	Summary Summary
	Action  Action
}

// Report snapshots the tracker's contents under action. Call once at the
// end of a translate() call, success or failure, so a Failed report still
// carries everything recorded before the abort.
func (t *Tracker) Report(action Action) *Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	items := make([]Item, len(t.items))
	copy(items, t.items)

	records := make([]TransformationRecord, len(t.records))
	copy(records, t.records)

	timing := make(map[string]Timing, len(t.timingFor))
	for path, tm := range t.timingFor {
		timing[path] = *tm
	}

	return &Report{
		Items:   items,
		Records: records,
		Timing:  timing,
		Action:  action,
		Summary: Summary{
			TotalTransformations: len(t.records),
			ByOperationType: lo.CountValuesBy(t.records, func(rec TransformationRecord) OperationType {
				return rec.OperationType
			}),
		},
	}
}
