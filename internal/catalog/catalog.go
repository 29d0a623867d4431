package catalog

import (
	"fmt"
	"sort"
)

// SectionSpec describes one section of the company profile. The catalog is
// fixed at startup; DependsOn lists sections whose final text must exist
// before this section's draft can be generated.
type SectionSpec struct {
	ID        string   `yaml:"id"`
	Number    int      `yaml:"number"`
	Title     string   `yaml:"title"`
	Specs     string   `yaml:"specs"`
	DependsOn []string `yaml:"depends_on,omitempty"`
}

type Catalog struct {
	sections []SectionSpec
	byID     map[string]SectionSpec
}

func New(sections []SectionSpec) (*Catalog, error) {
	c := &Catalog{
		sections: append([]SectionSpec(nil), sections...),
		byID:     make(map[string]SectionSpec, len(sections)),
	}
	for _, s := range c.sections {
		c.byID[s.ID] = s
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the built-in twenty-section company profile catalog.
func Default() *Catalog {
	c, err := New(defaultSections)
	if err != nil {
		// The built-in catalog is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return c
}

func (c *Catalog) Sections() []SectionSpec {
	return append([]SectionSpec(nil), c.sections...)
}

func (c *Catalog) Get(id string) (SectionSpec, bool) {
	s, ok := c.byID[id]
	return s, ok
}

func (c *Catalog) Len() int { return len(c.sections) }

// Validate rejects duplicate ids, unknown dependency ids, self-dependencies
// and dependency cycles.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.sections))
	for _, s := range c.sections {
		if s.ID == "" {
			return fmt.Errorf("section %d (%q) has empty id", s.Number, s.Title)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate section id: %s", s.ID)
		}
		seen[s.ID] = true
	}
	for _, s := range c.sections {
		for _, dep := range s.DependsOn {
			if dep == s.ID {
				return fmt.Errorf("section %s depends on itself", s.ID)
			}
			if !seen[dep] {
				return fmt.Errorf("section %s depends on unknown section %s", s.ID, dep)
			}
		}
	}
	return c.checkAcyclic()
}

func (c *Catalog) checkAcyclic() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(c.sections))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("dependency cycle through section %s", id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, dep := range c.byID[id].DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for _, s := range c.sections {
		if err := visit(s.ID); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the catalog-ordered subset of the given section ids, closed
// over dependencies. An empty selection means the whole catalog.
func (c *Catalog) Resolve(selected []string) ([]SectionSpec, error) {
	if len(selected) == 0 {
		return c.Sections(), nil
	}
	include := make(map[string]bool, len(selected))
	var add func(id string) error
	add = func(id string) error {
		if include[id] {
			return nil
		}
		s, ok := c.byID[id]
		if !ok {
			return fmt.Errorf("unknown section id: %s", id)
		}
		include[id] = true
		for _, dep := range s.DependsOn {
			if err := add(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, id := range selected {
		if err := add(id); err != nil {
			return nil, err
		}
	}
	out := make([]SectionSpec, 0, len(include))
	for _, s := range c.sections {
		if include[s.ID] {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
