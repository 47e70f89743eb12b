package strictness

import "testing"

func TestUnsupportedFeature(t *testing.T) {
	cases := []struct {
		mode   Mode
		action Action
		sev    Severity
	}{
		{ModeStrict, ActionFail, SeverityCritical},
		{ModeWarn, ActionWarn, SeverityWarning},
		{ModeCoerce, ActionProceed, SeverityWarning},
	}

	for _, c := range cases {
		d := UnsupportedFeature("$.tools", c.mode, nil)
		if d.Action != c.action {
			t.Errorf("mode=%s: expected action %s, got %s", c.mode, c.action, d.Action)
		}

		if d.Item == nil || d.Item.Severity != c.sev {
			t.Errorf("mode=%s: expected severity %s, got %+v", c.mode, c.sev, d.Item)
		}
	}
}

func TestValueClampInRangeProceedsSilently(t *testing.T) {
	d := ValueClamp("$.temperature", 0.5, 0, 1, ModeCoerce, nil)

	if d.Action != ActionProceed {
		t.Fatalf("expected Proceed, got %s", d.Action)
	}

	if d.Item != nil {
		t.Fatalf("expected no item for in-range value")
	}
}

func TestValueClampOutOfRangeCoerce(t *testing.T) {
	d := ValueClamp("$.temperature", 2.5, 0, 2, ModeCoerce, nil)

	if d.Action != ActionCoerce {
		t.Fatalf("expected Coerce, got %s", d.Action)
	}

	if d.Item.Before != 2.5 || d.Item.After != 2.0 {
		t.Fatalf("expected before=2.5 after=2.0, got %+v", d.Item)
	}
}

func TestPerformanceImpactWarnsInEveryMode(t *testing.T) {
	for _, mode := range []Mode{ModeStrict, ModeWarn, ModeCoerce} {
		_ = mode

		d := PerformanceImpact("slow path")
		if d.Action != ActionWarn {
			t.Fatalf("expected Warn, got %s", d.Action)
		}
	}
}

func TestConflictDecisionMultipleLosersStrictFails(t *testing.T) {
	d := ConflictDecision(ModeStrict, 2)

	if d.Action != ActionFail {
		t.Fatalf("expected Fail, got %s", d.Action)
	}
}

func TestConflictDecisionSingleLoserStrictWarns(t *testing.T) {
	d := ConflictDecision(ModeStrict, 1)

	if d.Action != ActionWarn {
		t.Fatalf("expected Warn, got %s", d.Action)
	}
}

type fakeTracker struct {
	errs, critical bool
}

func (f fakeTracker) HasErrors() bool         { return f.errs }
func (f fakeTracker) HasCriticalIssues() bool { return f.critical }

func TestEvaluateProceeding(t *testing.T) {
	if !EvaluateProceeding(ModeStrict, fakeTracker{}) {
		t.Fatalf("expected proceeding with no issues")
	}

	if EvaluateProceeding(ModeStrict, fakeTracker{errs: true}) {
		t.Fatalf("expected Strict to fail on Error")
	}

	if !EvaluateProceeding(ModeWarn, fakeTracker{errs: true}) {
		t.Fatalf("expected Warn to proceed despite Error")
	}

	if EvaluateProceeding(ModeWarn, fakeTracker{critical: true}) {
		t.Fatalf("expected Warn to fail on Critical")
	}
}

func TestOverridesTakePrecedence(t *testing.T) {
	overrides := Overrides{"$.tools": ModeCoerce}

	d := UnsupportedFeature("$.tools", ModeStrict, overrides)
	if d.Action != ActionProceed {
		t.Fatalf("expected override to coerce, got %s", d.Action)
	}
}
