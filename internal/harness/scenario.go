package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one lineage scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Cells is the number of fresh code cells in the starting notebook.
	Cells int `yaml:"cells"`

	// Steps are applied to the working notebook in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final notebook.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one mutation or engine operation.
type Step struct {
	// Op names the operation, see the Op constants.
	Op string `yaml:"op"`

	// At is the position used by insert and remove.
	At int `yaml:"at,omitempty"`

	// Count is the number of cells insert adds. Zero means one.
	Count int `yaml:"count,omitempty"`

	// From and To are the positions used by move and duplicate.
	From int `yaml:"from,omitempty"`
	To   int `yaml:"to,omitempty"`

	// Cells selects the cells to branch. Empty means all.
	Cells []int `yaml:"cells,omitempty"`

	// Trim bounds history on reset. Nil keeps history unbounded.
	Trim *int `yaml:"trim,omitempty"`

	// ClearSignature drops the origin signature on reset.
	ClearSignature bool `yaml:"clear_signature,omitempty"`

	// Signature is the record stored by track_signature.
	Signature map[string]string `yaml:"signature,omitempty"`
}

// Step operation constants.
const (
	OpSynchronize    = "synchronize"
	OpReset          = "reset"
	OpInsert         = "insert"
	OpRemove         = "remove"
	OpMove           = "move"
	OpDuplicate      = "duplicate"
	OpBranch         = "branch"
	OpTrackSignature = "track_signature"
)

// Assertion validates the final notebook.
type Assertion struct {
	// Type specifies the assertion type, see the Assert constants.
	Type string `yaml:"type"`

	// Cell is the cell index used by history_length and branch_count.
	Cell int `yaml:"cell,omitempty"`

	// Cells lists the cell indices compared by same_lineage.
	Cells []int `yaml:"cells,omitempty"`

	// Count is the expected number (history_length, branch_count, ...).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertLinked                 = "linked"
	AssertUniqueIdentities       = "unique_identities"
	AssertIdempotent             = "idempotent"
	AssertHistoryLength          = "history_length"
	AssertNotebookHistoryLength  = "notebook_history_length"
	AssertSignatureHistoryLength = "signature_history_length"
	AssertRootCells              = "root_cells"
	AssertBranchCount            = "branch_count"
	AssertSameLineage            = "same_lineage"
)

// signatureKeys are the keys track_signature accepts.
var signatureKeys = map[string]bool{
	"signature_id":  true,
	"notebook_dir":  true,
	"notebook_path": true,
	"server_url":    true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
// Positions are checked at run time, against the notebook as it is then.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Cells < 0 {
		return fmt.Errorf("cells must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	switch st.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpSynchronize, OpRemove, OpMove, OpDuplicate, OpBranch:
	case OpInsert:
		if st.Count < 0 {
			return fmt.Errorf("steps[%d]: count must be non-negative for insert", index)
		}
	case OpReset:
		if st.Trim != nil && *st.Trim < 0 {
			return fmt.Errorf("steps[%d]: trim must be non-negative for reset", index)
		}
	case OpTrackSignature:
		if len(st.Signature) == 0 {
			return fmt.Errorf("steps[%d]: signature is required for track_signature", index)
		}
		for k := range st.Signature {
			if !signatureKeys[k] {
				return fmt.Errorf("steps[%d]: unknown signature key %q", index, k)
			}
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertLinked, AssertUniqueIdentities, AssertIdempotent, AssertRootCells:
	case AssertHistoryLength, AssertNotebookHistoryLength, AssertSignatureHistoryLength, AssertBranchCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertSameLineage:
		if len(a.Cells) < 2 {
			return fmt.Errorf("assertions[%d]: same_lineage needs at least two cells", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
