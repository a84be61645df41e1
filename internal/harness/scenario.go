package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rowmap/internal/config"
)

// Scenario is one mapper scenario.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Schema holds the DDL statements run before anything else.
	Schema []string `yaml:"schema"`

	// Mappers are built over the scenario database by name.
	Mappers map[string]config.MapperDef `yaml:"mappers"`

	// Setup seeds rows. It is not traced.
	Setup []SetupStep `yaml:"setup,omitempty"`

	Flow []FlowStep `yaml:"flow"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// SetupStep creates rows through a mapper.
type SetupStep struct {
	Mapper string           `yaml:"mapper"`
	Rows   []map[string]any `yaml:"rows"`
}

// FlowStep is one mapper call.
type FlowStep struct {
	Op     string `yaml:"op"`
	Mapper string `yaml:"mapper"`

	// Data is a row or list of rows for create, update, flush and sync, and
	// the single row of values for update_batch.
	Data any `yaml:"data,omitempty"`

	Where       map[string]any `yaml:"where,omitempty"`
	Order       []string       `yaml:"order,omitempty"`
	Limit       int            `yaml:"limit,omitempty"`
	Compare     []string       `yaml:"compare,omitempty"`
	On          []string       `yaml:"on,omitempty"`
	UpdateNulls bool           `yaml:"update_nulls,omitempty"`

	// Expect checks the outcome. A nil Expect only requires success.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is a step outcome check. Only the fields that are set are checked.
type Expect struct {
	// Error is the expected error kind: CONFIGURATION, INPUT_SHAPE,
	// RECONCILIATION or STORAGE. Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Count is the number of rows returned, or the count for count steps.
	Count *int `yaml:"count,omitempty"`

	// Rows is matched against the returned rows in order. The lengths must
	// agree; each expected row is a subset of the actual one.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// OK is the boolean result of delete and update_batch.
	OK *bool `yaml:"ok,omitempty"`

	Kept    *int `yaml:"kept,omitempty"`
	Added   *int `yaml:"added,omitempty"`
	Deleted *int `yaml:"deleted,omitempty"`
}

// Assertion checks the final database state or the trace.
type Assertion struct {
	Type string `yaml:"type"`

	// final_state
	Mapper string           `yaml:"mapper,omitempty"`
	Where  map[string]any   `yaml:"where,omitempty"`
	Order  []string         `yaml:"order,omitempty"`
	Rows   []map[string]any `yaml:"rows,omitempty"`

	// final_state and event_count
	Count *int `yaml:"count,omitempty"`

	// event_order
	Events []string `yaml:"events,omitempty"`

	// event_count
	Event string `yaml:"event,omitempty"`
}

// Operation names.
const (
	OpFind        = "find"
	OpCount       = "count"
	OpCreate      = "create"
	OpUpdate      = "update"
	OpUpdateBatch = "update_batch"
	OpDelete      = "delete"
	OpFlush       = "flush"
	OpSync        = "sync"
)

var knownOps = []string{OpFind, OpCount, OpCreate, OpUpdate, OpUpdateBatch, OpDelete, OpFlush, OpSync}

// Assertion type constants.
const (
	AssertFinalState = "final_state"
	AssertEventOrder = "event_order"
	AssertEventCount = "event_count"
)

// Error kinds used by Expect.Error.
const (
	ErrorConfiguration  = "CONFIGURATION"
	ErrorInputShape     = "INPUT_SHAPE"
	ErrorReconciliation = "RECONCILIATION"
	ErrorStorage        = "STORAGE"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
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
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Schema) == 0 {
		return fmt.Errorf("schema list is required and must be non-empty")
	}
	if len(s.Mappers) == 0 {
		return fmt.Errorf("mappers are required")
	}
	if err := (&config.File{Mappers: s.Mappers}).Validate(); err != nil {
		return fmt.Errorf("mappers: %w", err)
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if _, ok := s.Mappers[step.Mapper]; !ok {
			return fmt.Errorf("setup[%d]: unknown mapper %q", i, step.Mapper)
		}
	}

	for i, step := range s.Flow {
		if !slices.Contains(knownOps, step.Op) {
			return fmt.Errorf("flow[%d]: unknown op %q", i, step.Op)
		}
		if _, ok := s.Mappers[step.Mapper]; !ok {
			return fmt.Errorf("flow[%d]: unknown mapper %q", i, step.Mapper)
		}
		if _, err := parseOrders(step.Order); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.Op == OpUpdateBatch {
			if _, ok := step.Data.(map[string]any); !ok {
				return fmt.Errorf("flow[%d]: update_batch data must be a single row", i)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, s.Mappers); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, mappers map[string]config.MapperDef) error {
	switch a.Type {
	case AssertFinalState:
		if _, ok := mappers[a.Mapper]; !ok {
			return fmt.Errorf("assertions[%d]: unknown mapper %q", index, a.Mapper)
		}
		if a.Count == nil && a.Rows == nil {
			return fmt.Errorf("assertions[%d]: final_state needs count or rows", index)
		}
		if _, err := parseOrders(a.Order); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
