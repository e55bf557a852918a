// Package aspects models activatable capability bundles ("aspects") and
// their typed configurable values ("tastes"). Bears map individual settings
// to aspect data through a tagged Value variant; the resolver pattern-matches
// on the variant kind instead of inspecting runtime types.
package aspects

import (
	"github.com/zclconf/go-cty/cty"
)

// Aspect is a named capability bundle carrying a table of taste values.
type Aspect struct {
	Name   string
	Tastes map[string]cty.Value
}

// Taste returns the resolved value of a taste by name.
func (a *Aspect) Taste(name string) (cty.Value, bool) {
	v, ok := a.Tastes[name]
	return v, ok
}

// valueKind discriminates the Value variant.
type valueKind int

const (
	kindFlag valueKind = iota
	kindTaste
)

// Value maps a bear setting to aspect data. It is either a capability
// presence flag or a reference to a taste owned by a named aspect.
type Value struct {
	kind       valueKind
	capability string
	aspectName string
	tasteName  string
}

// Flag builds a Value that resolves to true iff the named capability is
// active in the current section.
func Flag(capability string) Value {
	return Value{kind: kindFlag, capability: capability}
}

// TasteRef builds a Value that resolves to the named taste of the owning
// aspect, if that aspect is active.
func TasteRef(aspect, taste string) Value {
	return Value{kind: kindTaste, aspectName: aspect, tasteName: taste}
}

// Resolve evaluates the variant against the active aspect collection. The
// boolean reports whether a value was produced at all: a taste reference
// whose owning aspect is inactive produces nothing.
func (v Value) Resolve(active *Active) (cty.Value, bool) {
	switch v.kind {
	case kindFlag:
		return cty.BoolVal(active.Has(v.capability)), true
	case kindTaste:
		aspect, ok := active.Lookup(v.aspectName)
		if !ok {
			return cty.NilVal, false
		}
		taste, ok := aspect.Taste(v.tasteName)
		if !ok {
			return cty.NilVal, false
		}
		return taste, true
	}
	return cty.NilVal, false
}

// Active is the collection of aspects activated for one section.
type Active struct {
	byName map[string]*Aspect
	order  []string
}

// NewActive builds an Active collection from the given aspect instances.
func NewActive(list ...*Aspect) *Active {
	a := &Active{byName: make(map[string]*Aspect, len(list))}
	for _, asp := range list {
		if _, exists := a.byName[asp.Name]; exists {
			continue
		}
		a.byName[asp.Name] = asp
		a.order = append(a.order, asp.Name)
	}
	return a
}

// Has reports whether the named capability is active.
func (a *Active) Has(capability string) bool {
	if a == nil {
		return false
	}
	_, ok := a.byName[capability]
	return ok
}

// Lookup returns the active aspect instance by name.
func (a *Active) Lookup(name string) (*Aspect, bool) {
	if a == nil {
		return nil, false
	}
	asp, ok := a.byName[name]
	return asp, ok
}

// Empty reports whether no aspects are active. The resolver treats an empty
// collection as "aspect resolution disabled".
func (a *Active) Empty() bool {
	return a == nil || len(a.byName) == 0
}

// Names returns the active aspect names in activation order.
func (a *Active) Names() []string {
	if a == nil {
		return nil
	}
	return a.order
}
