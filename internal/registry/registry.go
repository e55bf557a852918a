// Package registry is the central glue between bear declarations and the
// compiled Go handlers that implement them.
//
// At startup every built-in bear module registers its declaration and
// handler pair; the registry is then validated to guarantee that declared
// parameters and the handler's input struct are perfectly in sync before
// anything runs.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/RaiVaibhav/coala/internal/bears"
)

// RegisteredBear holds the compiled Go parts of a bear.
//
// NewInput returns a pointer to a fresh input struct whose fields carry
// `coala:"<param>"` tags; Fn must be a function of the form
// func(ctx context.Context, input *T) (any, error), where the returned any
// is either a []any or a bears.Stream.
type RegisteredBear struct {
	NewInput func() any
	Fn       any
}

// Module is the interface a bear module implements to be registered.
type Module interface {
	Register(r *Registry)
}

type entry struct {
	decl    *bears.Declaration
	handler *RegisteredBear
}

// Registry holds all registered bears for a single application instance.
type Registry struct {
	byName map[string]entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]entry)}
}

// RegisterBear registers a declaration/handler pair. Double registration is
// a programmer error.
func (r *Registry) RegisterBear(decl *bears.Declaration, handler *RegisteredBear) {
	if decl == nil || decl.Name == "" {
		panic("bear declaration must have a name")
	}
	if _, exists := r.byName[decl.Name]; exists {
		panic(fmt.Sprintf("bear with name '%s' already registered", decl.Name))
	}
	slog.Debug("Registering bear.", "name", decl.Name, "kind", decl.Kind.String())
	r.byName[decl.Name] = entry{decl: decl, handler: handler}
}

// Bear returns the declaration and handler for a name.
func (r *Registry) Bear(name string) (*bears.Declaration, *RegisteredBear, bool) {
	e, ok := r.byName[name]
	if !ok {
		return nil, nil, false
	}
	return e.decl, e.handler, true
}

// Declaration returns just the declaration for a name.
func (r *Registry) Declaration(name string) (*bears.Declaration, bool) {
	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.decl, true
}

// Names returns all registered bear names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
