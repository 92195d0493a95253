package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/nblineage/internal/canonical"
)

// Snapshot captures a scenario execution for golden comparison.
type Snapshot struct {
	ScenarioName string
	Trace        []StepTrace
	Lineage      map[string]any
}

// toCanonicalMap converts a Snapshot to the value canonical.Marshal accepts.
// Zero counters and false flags are left out of each trace entry.
func (s *Snapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, step := range s.Trace {
		entry := map[string]any{
			"seq":   step.Seq,
			"op":    step.Op,
			"cells": step.Cells,
		}
		if step.Minted != 0 {
			entry["minted"] = step.Minted
		}
		if step.HistoryRecorded != 0 {
			entry["history_recorded"] = step.HistoryRecorded
		}
		if step.Branched != 0 {
			entry["branched"] = step.Branched
		}
		if step.Tracked {
			entry["tracked"] = true
		}
		traceList[i] = entry
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"lineage":       s.Lineage,
	}
}

// Marshal returns the canonical JSON form of s.
func (s *Snapshot) Marshal() ([]byte, error) {
	return canonical.Marshal(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace and final
// lineage against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check assertions as well.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the golden file named
// after scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Lineage:      result.Document.LineageTree(),
	}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
