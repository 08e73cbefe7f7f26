package harness

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hostbridge/internal/ir"
)

// Scenario is one conformance case.
//
// It drives the boundary either through a script run in the JS host or
// through a batch run directly by the operation interpreter, then checks
// what came out.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Script is JavaScript run with the hostbridge module installed.
	Script string `yaml:"script,omitempty"`

	// Operations is a batch of operation descriptors. Member order is kept.
	Operations yaml.Node `yaml:"operations,omitempty"`

	// Expect lists the observable outcome. Omitted fields are not checked.
	Expect Expect `yaml:"expect"`
}

// Expect specifies the observable outcome of a scenario.
type Expect struct {
	// Stdout is the exact output written by print operations and console.
	Stdout *string `yaml:"stdout,omitempty"`

	// Error is the exact failure message. Nil means the run must succeed.
	Error *string `yaml:"error,omitempty"`

	// Callbacks is the number of completions delivered to the host.
	Callbacks *int64 `yaml:"callbacks,omitempty"`
}

// HasScript reports whether the scenario runs a script.
func (s *Scenario) HasScript() bool {
	return s.Script != ""
}

// HasOperations reports whether the scenario runs an operation batch.
func (s *Scenario) HasOperations() bool {
	return s.Operations.Kind != 0
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
	// Strict field validation catches typos like "expects:"
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

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.HasScript() && s.HasOperations():
		return fmt.Errorf("script and operations are mutually exclusive")
	case !s.HasScript() && !s.HasOperations():
		return fmt.Errorf("one of script or operations is required")
	}

	if s.HasOperations() && s.Operations.Kind != yaml.SequenceNode {
		return fmt.Errorf("operations must be a list (line %d)", s.Operations.Line)
	}

	if s.Expect.Callbacks != nil && *s.Expect.Callbacks < 0 {
		return fmt.Errorf("expect.callbacks must be non-negative")
	}
	return nil
}

// ValueFromYAML converts a YAML node into an ir.Value, keeping mapping key
// order. Scalars follow their resolved YAML tag: !!null, !!bool, !!int and
// !!float become Null, Bool and Number; everything else is a String.
func ValueFromYAML(n *yaml.Node) (ir.Value, error) {
	switch n.Kind {
	case 0:
		// yaml.Unmarshal leaves the node zero for empty input.
		return ir.Null{}, nil

	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return ir.Null{}, nil
		}
		return ValueFromYAML(n.Content[0])

	case yaml.AliasNode:
		return ValueFromYAML(n.Alias)

	case yaml.SequenceNode:
		arr := make(ir.Array, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := ValueFromYAML(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil

	case yaml.MappingNode:
		obj := ir.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			v, err := ValueFromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(key.Value, v)
		}
		return obj, nil

	case yaml.ScalarNode:
		return scalarValue(n)

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

func scalarValue(n *yaml.Node) (ir.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return ir.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return ir.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return ir.Number(f), nil
	default:
		return ir.String(n.Value), nil
	}
}

// quote renders s for failure messages.
func quote(s string) string {
	return strconv.Quote(s)
}
