package whatif

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// catalogFile is the shape of the embedded YAML document
type catalogFile struct {
	Scenarios []ScenarioDefinition `yaml:"scenarios"`
}

// LoadCatalog decodes the built-in scenario catalog. The catalog is static:
// loaded once at service construction and looked up by id afterwards.
func LoadCatalog() ([]ScenarioDefinition, error) {
	var file catalogFile
	if err := yaml.Unmarshal(embeddedCatalog, &file); err != nil {
		return nil, fmt.Errorf("failed to decode embedded scenario catalog: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("embedded scenario catalog is empty")
	}
	for _, s := range file.Scenarios {
		if s.ID == "" || s.Percent < 0 {
			return nil, fmt.Errorf("invalid scenario definition: %+v", s)
		}
	}
	return file.Scenarios, nil
}
