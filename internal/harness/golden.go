package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/calegray/scopedsl/internal/cval"
	"github.com/calegray/scopedsl/internal/engine"
)

// TraceSnapshot captures the complete trace of a scenario resolution.
// Serialized canonically so golden comparison is byte-for-byte stable.
type TraceSnapshot struct {
	ScenarioName string
	TraceID      string
	Resolved     []string
	Events       []engine.TraceEvent
}

// toCanonical converts the snapshot to component data for canonical
// serialization.
func (s *TraceSnapshot) toCanonical() cval.Object {
	events := make(cval.Array, len(s.Events))
	for i, ev := range s.Events {
		obj := cval.Object{
			"kind":  cval.String(ev.Kind),
			"depth": cval.Int(ev.Depth),
			"size":  cval.Int(ev.Size),
		}
		if ev.Detail != "" {
			obj["detail"] = cval.String(ev.Detail)
		}
		events[i] = obj
	}

	resolved := make(cval.Array, len(s.Resolved))
	for i, id := range s.Resolved {
		resolved[i] = cval.String(id)
	}

	return cval.Object{
		"scenario_name": cval.String(s.ScenarioName),
		"trace_id":      cval.String(s.TraceID),
		"resolved":      resolved,
		"events":        events,
	}
}

// RunWithGolden executes a scenario, checks its expectations, and
// compares the trace snapshot against a golden file stored in
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s failed to run: %v", scenario.Name, err)
	}
	for _, failure := range result.Failures {
		t.Errorf("scenario %s: %s", scenario.Name, failure)
	}

	AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares a result's trace snapshot against the golden
// file for scenarioName. Useful when the result is already in hand.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		TraceID:      result.Trace.TraceID,
		Resolved:     result.IDs,
		Events:       result.Trace.Events,
	}

	data, err := cval.MarshalCanonical(snapshot.toCanonical())
	if err != nil {
		t.Fatalf("failed to serialize trace snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
}
