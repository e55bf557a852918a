// Package settings defines the format-agnostic settings model and the
// Loader interface implemented by the HCL and YAML front ends.
package settings

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/RaiVaibhav/coala/internal/aspects"
)

// Section is one named settings section: the explicit key/value settings the
// user wrote, the section language, the bears the section wants to run and
// the aspects it activates.
type Section struct {
	Name     string
	Language string
	Bears    []string
	Aspects  *aspects.Active

	contents map[string]cty.Value
	order    []string
}

// NewSection creates an empty section.
func NewSection(name string) *Section {
	return &Section{
		Name:     name,
		contents: make(map[string]cty.Value),
	}
}

// Set stores an explicit setting value, preserving first-write order.
func (s *Section) Set(name string, v cty.Value) {
	if _, exists := s.contents[name]; !exists {
		s.order = append(s.order, name)
	}
	s.contents[name] = v
}

// Has is the membership test: it reports whether the setting was explicitly
// written by the user. Explicitly set parameters suppress aspect lookup.
func (s *Section) Has(name string) bool {
	_, ok := s.contents[name]
	return ok
}

// Get returns the explicit setting value, if present.
func (s *Section) Get(name string) (cty.Value, bool) {
	v, ok := s.contents[name]
	return v, ok
}

// Names returns the explicitly set setting names in write order.
func (s *Section) Names() []string {
	return s.order
}

// Model is the unified representation of all loaded settings files.
type Model struct {
	Sections map[string]*Section
	// SectionOrder preserves the order sections appeared in, so runs are
	// reproducible.
	SectionOrder []string
	// Aspects are the aspect definitions available for activation.
	Aspects map[string]*aspects.Aspect
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		Sections: make(map[string]*Section),
		Aspects:  make(map[string]*aspects.Aspect),
	}
}

// AddSection registers a section, keeping order. A duplicate name replaces
// the earlier definition but keeps its position.
func (m *Model) AddSection(s *Section) {
	if _, exists := m.Sections[s.Name]; !exists {
		m.SectionOrder = append(m.SectionOrder, s.Name)
	}
	m.Sections[s.Name] = s
}
