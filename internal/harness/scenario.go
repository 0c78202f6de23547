package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/segment"
)

// Scenario is an ordered list of segment runs plus assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// ScoreDir is a CUE score directory, relative to the scenario file.
	// When set, segments come from the compiled directory and Segments
	// must be empty.
	ScoreDir string `yaml:"score_dir,omitempty"`

	// Score names the score in the store. Defaults to Name.
	Score string `yaml:"score,omitempty"`

	// Template, Manifests and FermataMeasureStaffLineCount are shared by
	// every inline segment that does not set its own.
	Template                     ir.TemplateSpec `yaml:"template,omitempty"`
	Manifests                    ir.ManifestSpec `yaml:"manifests,omitempty"`
	FermataMeasureStaffLineCount *int            `yaml:"fermata_measure_staff_line_count,omitempty"`

	Segments   []SegmentStep `yaml:"segments,omitempty"`
	Assertions []Assertion   `yaml:"assertions"`
}

// SegmentStep is one inline segment definition.
type SegmentStep struct {
	ir.SegmentDefinition `yaml:",inline"`

	// ExpectError is the error code the run must fail with, e.g. "INVARIANT".
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion checks one aspect of a segment outcome. Segment is the 1-based
// position of the segment in the scenario's list.
type Assertion struct {
	Type    string `yaml:"type"`
	Segment int    `yaml:"segment"`

	// Context and Leaf select a leaf: the Leaf-th (0-based) leaf under
	// Context in time order. Context alone names a context for momentos.
	Context string `yaml:"context,omitempty"`
	Leaf    int    `yaml:"leaf,omitempty"`

	Prototype string `yaml:"prototype,omitempty"`
	Status    string `yaml:"status,omitempty"`
	Tag       string `yaml:"tag,omitempty"`

	// Value is the expected momento value or metadata field value.
	Value any `yaml:"value,omitempty"`

	// Absent inverts a momento assertion.
	Absent bool `yaml:"absent,omitempty"`

	// Field names the metadata field for metadata assertions.
	Field string `yaml:"field,omitempty"`

	// Contains is the expected substring for lilypond assertions.
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertStatus      = "status"
	AssertNoIndicator = "no_indicator"
	AssertMomento     = "momento"
	AssertMetadata    = "metadata"
	AssertLilyPond    = "lilypond"
)

// Metadata fields a metadata assertion may name.
var metadataFields = []string{
	"segment_number",
	"first_measure_number",
	"time_signatures",
	"duration",
	"start_clock_time",
	"stop_clock_time",
}

var errorCodes = []string{
	string(segment.ErrCodeConfiguration),
	string(segment.ErrCodeInvariant),
	string(segment.ErrCodePerformance),
	string(segment.ErrCodeCommand),
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// ScoreDir is resolved relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.ScoreDir != "" && !filepath.IsAbs(scenario.ScoreDir) {
		scenario.ScoreDir = filepath.Join(filepath.Dir(path), scenario.ScoreDir)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.ScoreDir != "" && len(s.Segments) > 0:
		return fmt.Errorf("score_dir and segments are mutually exclusive")
	case s.ScoreDir != "":
		if info, err := os.Stat(s.ScoreDir); err != nil || !info.IsDir() {
			return fmt.Errorf("score_dir not found: %s", s.ScoreDir)
		}
	case len(s.Segments) == 0:
		return fmt.Errorf("segments list is required and must be non-empty")
	}

	for i, step := range s.Segments {
		if step.ExpectError != "" && !slices.Contains(errorCodes, step.ExpectError) {
			return fmt.Errorf("segments[%d]: unknown expect_error %q", i, step.ExpectError)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Segment < 1 {
		return fmt.Errorf("assertions[%d]: segment must be >= 1", index)
	}

	switch a.Type {
	case AssertStatus, AssertNoIndicator:
		if a.Context == "" || a.Prototype == "" {
			return fmt.Errorf("assertions[%d]: context and prototype are required for %s", index, a.Type)
		}
		if _, err := ir.ParsePrototype(a.Prototype); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Type == AssertStatus {
			if _, err := ir.ParseStatus(a.Status); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertMomento:
		if a.Context == "" || a.Prototype == "" {
			return fmt.Errorf("assertions[%d]: context and prototype are required for momento", index)
		}
		if _, err := ir.ParsePrototype(a.Prototype); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if !a.Absent && a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for momento", index)
		}
	case AssertMetadata:
		if !slices.Contains(metadataFields, a.Field) {
			return fmt.Errorf("assertions[%d]: unknown metadata field %q", index, a.Field)
		}
	case AssertLilyPond:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for lilypond", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
