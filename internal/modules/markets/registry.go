package markets

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed specs.yaml
var embeddedSpecs []byte

// Registry is an immutable lookup table of contract specifications keyed by
// id and symbol. Construct it once and share it freely - it is never mutated
// after construction, so concurrent reads need no locking.
type Registry struct {
	byID     map[string]*ContractSpecification
	bySymbol map[string]*ContractSpecification
	specs    []*ContractSpecification
}

// specsFile is the shape of the embedded YAML document
type specsFile struct {
	Markets []ContractSpecification `yaml:"markets"`
}

// NewRegistry builds a registry from the embedded contract specifications
func NewRegistry() (*Registry, error) {
	var file specsFile
	if err := yaml.Unmarshal(embeddedSpecs, &file); err != nil {
		return nil, fmt.Errorf("failed to decode embedded market specs: %w", err)
	}
	return NewRegistryFromSpecs(file.Markets)
}

// NewRegistryFromSpecs builds a registry from caller-supplied specifications.
// Used by tests and by embedding applications that maintain their own tables.
func NewRegistryFromSpecs(specs []ContractSpecification) (*Registry, error) {
	r := &Registry{
		byID:     make(map[string]*ContractSpecification, len(specs)),
		bySymbol: make(map[string]*ContractSpecification, len(specs)),
		specs:    make([]*ContractSpecification, 0, len(specs)),
	}

	for i := range specs {
		spec := specs[i]
		if err := validateSpec(&spec); err != nil {
			return nil, fmt.Errorf("invalid spec %q: %w", spec.ID, err)
		}
		r.byID[normalizeKey(spec.ID)] = &spec
		r.bySymbol[normalizeKey(spec.Symbol)] = &spec
		r.specs = append(r.specs, &spec)
	}

	return r, nil
}

// Get resolves a specification by id first, then by symbol.
// Matching is case-insensitive and ignores surrounding whitespace.
// Returns nil on a miss, never an error.
func (r *Registry) Get(identifier string) *ContractSpecification {
	key := normalizeKey(identifier)
	if key == "" {
		return nil
	}
	if spec, ok := r.byID[key]; ok {
		return spec
	}
	if spec, ok := r.bySymbol[key]; ok {
		return spec
	}
	return nil
}

// All returns every registered specification in registration order
func (r *Registry) All() []*ContractSpecification {
	out := make([]*ContractSpecification, len(r.specs))
	copy(out, r.specs)
	return out
}

// Active returns every active specification in registration order
func (r *Registry) Active() []*ContractSpecification {
	var out []*ContractSpecification
	for _, spec := range r.specs {
		if spec.IsActive {
			out = append(out, spec)
		}
	}
	return out
}

func validateSpec(spec *ContractSpecification) error {
	if spec.ID == "" || spec.Symbol == "" {
		return fmt.Errorf("id and symbol are required")
	}
	if spec.TickSize <= 0 {
		return fmt.Errorf("tick size must be positive, got %v", spec.TickSize)
	}
	if spec.Precision < 0 {
		return fmt.Errorf("precision must be non-negative, got %d", spec.Precision)
	}
	min, max := spec.DefaultCommission.Minimum, spec.DefaultCommission.Maximum
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("commission minimum %v exceeds maximum %v", *min, *max)
	}
	return nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
