// Package lossiness implements the append-only deviation log described in
// spec.md §4.7: every semantic compromise made during translation is
// recorded here, in chronological order, with enough structure to drive a
// user-visible report. Tracker is the one piece of shared mutable state the
// orchestrator hands out during a single translate() call (Design Note b),
// so every mutating method takes the single-writer mutex.
package lossiness

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/kesh-io/promptbridge/strictness"
)

// OperationType mirrors TransformationRecord.operation_type (spec.md §3).
type OperationType string

const (
	OpTypeConversion   OperationType = "TypeConversion"
	OpEnumMapping      OperationType = "EnumMapping"
	OpUnitConversion   OperationType = "UnitConversion"
	OpFieldMove        OperationType = "FieldMove"
	OpDefaultApplied   OperationType = "DefaultApplied"
	OpConditional      OperationType = "Conditional"
	OpCustom           OperationType = "Custom"
	OpConflictResolved OperationType = "ConflictResolved"
)

// Item is one LossinessItem (spec.md §3).
type Item struct {
	Code     strictness.Code
	Path     string
	Message  string
	Severity strictness.Severity
	Before   any
	After    any
	At       time.Time
}

// TransformationRecord extends Item with transformation-pipeline
// provenance (spec.md §3).
type TransformationRecord struct {
	Item
	OperationType OperationType
	Provider      string
	RuleID        string
	Duration      time.Duration
}

// Timing accumulates per-path duration statistics.
type Timing struct {
	Sum   time.Duration
	Count int
	Min   time.Duration
	Max   time.Duration
}

// Summary is get_summary_statistics()'s return shape.
type Summary struct {
	TotalTransformations int
	ByOperationType      map[OperationType]int
}

// Tracker is the append-only, single-writer-guarded deviation log.
type Tracker struct {
	mu sync.Mutex

	items     []Item
	records   []TransformationRecord
	timingFor map[string]*Timing
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{timingFor: make(map[string]*Timing)}
}

// Add appends a bare lossiness item (no transformation provenance).
func (t *Tracker) Add(item Item) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if item.At.IsZero() {
		item.At = time.Now()
	}

	t.items = append(t.items, item)
}

// TrackTransformation records a TransformationRecord and its timing.
func (t *Tracker) TrackTransformation(path string, opType OperationType, before, after any, reason, provider, ruleID string, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := TransformationRecord{
		Item: Item{
			Code:     strictness.CodeMapFallback,
			Path:     path,
			Message:  reason,
			Severity: strictness.SeverityInfo,
			Before:   before,
			After:    after,
			At:       time.Now(),
		},
		OperationType: opType,
		Provider:      provider,
		RuleID:        ruleID,
		Duration:      duration,
	}

	t.records = append(t.records, rec)
	t.accumulateTiming(path, duration)
}

// TrackDefaultApplied records a DefaultApplied transformation.
func (t *Tracker) TrackDefaultApplied(path string, after any, reason string) {
	t.TrackTransformation(path, OpDefaultApplied, nil, after, reason, "", "", 0)
}

// UpdateTransformationTiming updates the most recently recorded
// transformation at path with a measured duration (used when the
// transformation's cost is only known after the fact, e.g. a Custom
// function call).
func (t *Tracker) UpdateTransformationTiming(path string, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.records) - 1; i >= 0; i-- {
		if t.records[i].Path == path {
			t.records[i].Duration = duration
			break
		}
	}

	t.accumulateTiming(path, duration)
}

func (t *Tracker) accumulateTiming(path string, duration time.Duration) {
	tm, ok := t.timingFor[path]
	if !ok {
		tm = &Timing{Min: duration, Max: duration}
		t.timingFor[path] = tm
	}

	tm.Sum += duration
	tm.Count++

	if duration < tm.Min {
		tm.Min = duration
	}

	if duration > tm.Max {
		tm.Max = duration
	}
}

// TimingFor returns the accumulated timing for path, if any transformation
// touched it.
func (t *Tracker) TimingFor(path string) (Timing, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tm, ok := t.timingFor[path]
	if !ok {
		return Timing{}, false
	}

	return *tm, true
}

// HasErrors reports whether any recorded item has Error severity.
func (t *Tracker) HasErrors() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.hasSeverity(strictness.SeverityError)
}

// HasCriticalIssues reports whether any recorded item has Critical
// severity.
func (t *Tracker) HasCriticalIssues() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.hasSeverity(strictness.SeverityCritical)
}

func (t *Tracker) hasSeverity(sev strictness.Severity) bool {
	for _, item := range t.items {
		if item.Severity == sev {
			return true
		}
	}

	for _, rec := range t.records {
		if rec.Severity == sev {
			return true
		}
	}

	return false
}

// GetTransformationsByType returns every recorded TransformationRecord of
// the given operation type, in chronological order.
func (t *Tracker) GetTransformationsByType(opType OperationType) []TransformationRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []TransformationRecord

	for _, rec := range t.records {
		if rec.OperationType == opType {
			out = append(out, rec)
		}
	}

	return out
}

// Items returns every bare lossiness item in chronological order.
func (t *Tracker) Items() []Item {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Item, len(t.items))
	copy(out, t.items)

	return out
}

// Records returns every transformation record in chronological order.
func (t *Tracker) Records() []TransformationRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TransformationRecord, len(t.records))
	copy(out, t.records)

	return out
}

// SummaryStatistics implements get_summary_statistics().
func (t *Tracker) SummaryStatistics() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Summary{
		TotalTransformations: len(t.records),
		ByOperationType: lo.CountValuesBy(t.records, func(rec TransformationRecord) OperationType {
			return rec.OperationType
		}),
	}
}

// AuditReport implements generate_audit_report(): a human-readable,
// multi-line report grouped by severity then chronological order.
func (t *Tracker) AuditReport() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	severityOrder := []strictness.Severity{
		strictness.SeverityCritical, strictness.SeverityError, strictness.SeverityWarning, strictness.SeverityInfo,
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Lossiness audit report: %d items, %d transformations\n", len(t.items), len(t.records))

	type entry struct {
		at   time.Time
		line string
	}

	for _, sev := range severityOrder {
		var lines []entry

		for _, item := range t.items {
			if item.Severity == sev {
				lines = append(lines, entry{item.At, fmt.Sprintf("  [%s] %s: %s", item.Code, item.Path, item.Message)})
			}
		}

		for _, rec := range t.records {
			if rec.Severity == sev {
				lines = append(lines, entry{rec.At, fmt.Sprintf("  [%s] %s: %s -> %v", rec.OperationType, rec.Path, rec.Before, rec.After)})
			}
		}

		if len(lines) == 0 {
			continue
		}

		sort.SliceStable(lines, func(i, j int) bool { return lines[i].at.Before(lines[j].at) })

		fmt.Fprintf(&sb, "%s:\n", sev)

		for _, l := range lines {
			sb.WriteString(l.line)
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}
