package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides lets a deployment reshape the catalog without a rebuild:
// restrict the run to a subset of sections and redeclare dependency sets.
type Overrides struct {
	Sections     []string            `yaml:"sections,omitempty"`
	Dependencies map[string][]string `yaml:"dependencies,omitempty"`
}

func LoadOverrides(path string) (*Overrides, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog overrides: %w", err)
	}
	var o Overrides
	if err := yaml.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("parse catalog overrides: %w", err)
	}
	return &o, nil
}

// Apply returns a new catalog with the override dependency sets in place,
// restricted to the selected sections (closed over dependencies). The result
// is re-validated so a bad overrides file fails at startup, not mid-run.
func (c *Catalog) Apply(o *Overrides) (*Catalog, error) {
	if o == nil {
		return c, nil
	}
	sections := c.Sections()
	if len(o.Dependencies) > 0 {
		for i := range sections {
			if deps, ok := o.Dependencies[sections[i].ID]; ok {
				sections[i].DependsOn = append([]string(nil), deps...)
			}
		}
	}
	next, err := New(sections)
	if err != nil {
		return nil, fmt.Errorf("apply catalog overrides: %w", err)
	}
	if len(o.Sections) == 0 {
		return next, nil
	}
	subset, err := next.Resolve(o.Sections)
	if err != nil {
		return nil, fmt.Errorf("apply catalog overrides: %w", err)
	}
	return New(subset)
}
