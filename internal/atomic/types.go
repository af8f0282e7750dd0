package atomic

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Technique is one ATT&CK technique definition file: an identifier and the
// atomic tests it groups, in file order.
type Technique struct {
	ID          string       `yaml:"attack_technique"`
	DisplayName string       `yaml:"display_name"`
	AtomicTests []AtomicTest `yaml:"atomic_tests"`
}

// AtomicTest is a single, minimal command sequence simulating one adversary
// action. Optional fields decode to their zero value when absent.
type AtomicTest struct {
	Name                   string         `yaml:"name"`
	GUID                   string         `yaml:"auto_generated_guid"`
	Description            string         `yaml:"description"`
	SupportedPlatforms     []string       `yaml:"supported_platforms"`
	InputArguments         InputArguments `yaml:"input_arguments,omitempty"`
	DependencyExecutorName string         `yaml:"dependency_executor_name,omitempty"`
	Dependencies           Dependencies   `yaml:"dependencies,omitempty"`
	Executor               Executor       `yaml:"executor"`
}

// Executor names the shell a command runs under.
type Executor struct {
	Name              string `yaml:"name"`
	Command           string `yaml:"command"`
	CleanupCommand    string `yaml:"cleanup_command,omitempty"`
	ElevationRequired bool   `yaml:"elevation_required,omitempty"`
}

// SupportsPlatform reports whether the test declares the given platform.
func (t AtomicTest) SupportsPlatform(platform string) bool {
	for _, p := range t.SupportedPlatforms {
		if strings.EqualFold(strings.TrimSpace(p), platform) {
			return true
		}
	}
	return false
}

// DependencyDescriptor returns the test's dependencies together with the
// executor they run under. Without dependency_executor_name the descriptor
// is empty and the dependencies count as satisfied.
func (t AtomicTest) DependencyDescriptor() DependencyDescriptor {
	if strings.TrimSpace(t.DependencyExecutorName) == "" {
		return DependencyDescriptor{}
	}
	return DependencyDescriptor{
		Executor:     t.DependencyExecutorName,
		Dependencies: t.Dependencies,
	}
}

// InputArgument is a named command parameter with its default value kept as
// the literal scalar text from the definition file.
type InputArgument struct {
	Name        string
	Description string
	Type        string
	Default     string
}

// InputArguments preserves the declaration order of input_arguments so that
// placeholder substitution is deterministic.
type InputArguments []InputArgument

// Get returns the argument with the given name.
func (a InputArguments) Get(name string) (InputArgument, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg, true
		}
	}
	return InputArgument{}, false
}

func (a *InputArguments) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*a = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: input_arguments must be a mapping", value.Line)
	}

	args := make(InputArguments, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var raw struct {
			Description string    `yaml:"description"`
			Type        string    `yaml:"type"`
			Default     yaml.Node `yaml:"default"`
		}
		if err := value.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("input argument %q: %w", value.Content[i].Value, err)
		}
		args = append(args, InputArgument{
			Name:        value.Content[i].Value,
			Description: raw.Description,
			Type:        raw.Type,
			Default:     scalarText(&raw.Default),
		})
	}
	*a = args
	return nil
}

// scalarText renders a default value the way it is written in the file.
// Non-scalar defaults fall back to their decoded Go representation.
func scalarText(n *yaml.Node) string {
	switch {
	case n.Kind == 0:
		return ""
	case n.Kind == yaml.ScalarNode:
		if n.Tag == "!!null" {
			return ""
		}
		return n.Value
	default:
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return ""
		}
		return fmt.Sprint(v)
	}
}

// Dependency is a prerequisite check/remediation pair.
type Dependency struct {
	Description      string `yaml:"description"`
	PrereqCommand    string `yaml:"prereq_command,omitempty"`
	GetPrereqCommand string `yaml:"get_prereq_command,omitempty"`
}

// IsEmpty reports whether the dependency has neither a check nor a
// remediation command.
func (d Dependency) IsEmpty() bool {
	return strings.TrimSpace(d.PrereqCommand) == "" && strings.TrimSpace(d.GetPrereqCommand) == ""
}

// Dependencies accepts either a single mapping or a list of mappings.
// "dependencies: {description: x}" → [x]
type Dependencies []Dependency

func (d *Dependencies) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		var single Dependency
		if err := value.Decode(&single); err != nil {
			return err
		}
		*d = Dependencies{single}
		return nil
	case yaml.SequenceNode:
		var list []Dependency
		if err := value.Decode(&list); err != nil {
			return err
		}
		*d = list
		return nil
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*d = nil
			return nil
		}
	}
	return fmt.Errorf("line %d: dependencies must be a mapping or a list", value.Line)
}

// DependencyDescriptor is what the dependency resolver consumes.
type DependencyDescriptor struct {
	Executor     string
	Dependencies Dependencies
}

// IsEmpty reports whether there is nothing to run: no executor, or no
// dependency carrying a command.
func (d DependencyDescriptor) IsEmpty() bool {
	if strings.TrimSpace(d.Executor) == "" {
		return true
	}
	for _, dep := range d.Dependencies {
		if !dep.IsEmpty() {
			return false
		}
	}
	return true
}
