// Package bears holds the declaration model for analysis bears and the lazy
// result stream abstraction their run handlers may produce.
//
// A bear's capabilities, parameters and aspect mappings are declared with an
// explicit Declaration struct built at registration time; nothing is derived
// from reflection over the handler beyond the input-struct parity check in
// the registry.
package bears

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/RaiVaibhav/coala/internal/aspects"
)

// Kind classifies how a bear is scoped. Local bears run once per target
// file; global bears run once per section.
type Kind int

const (
	KindLocal Kind = iota
	KindGlobal
)

func (k Kind) String() string {
	if k == KindGlobal {
		return "global"
	}
	return "local"
}

// Param declares one formal parameter of a bear's run handler. A parameter
// with a default is optional.
type Param struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
}

// Optional reports whether the parameter may be left unset.
func (p Param) Optional() bool {
	return p.Default != nil
}

// Declaration is the full static description of a bear: identity, scoping,
// formal parameters, aspect-setting mapping and capability metadata.
type Declaration struct {
	Name        string
	Kind        Kind
	Description string

	// ToolWrap marks bears that wrap an external executable. Profiler
	// reports for such bears are scoped to rows mentioning the bear.
	ToolWrap bool

	// Params in declaration order; order is observable through the
	// debugger's settings command.
	Params []Param

	// AspectSettings maps parameter names to the aspect value that supplies
	// their default when the owning aspect is active.
	AspectSettings map[string]aspects.Value

	Languages         []string
	Authors           []string
	AuthorsEmails     []string
	Maintainers       []string
	MaintainersEmails []string
	License           string
	CanDetect         []string
	CanFix            []string
	SeeMore           string

	// Deps are bears that must have run before this one.
	Deps []*Declaration
}

// Param looks up a declared parameter by name.
func (d *Declaration) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// EffectiveMaintainers returns the maintainers, falling back to the authors
// when none were declared.
func (d *Declaration) EffectiveMaintainers() []string {
	if len(d.Maintainers) == 0 {
		return d.Authors
	}
	return d.Maintainers
}

// EffectiveMaintainersEmails mirrors EffectiveMaintainers for emails.
func (d *Declaration) EffectiveMaintainersEmails() []string {
	if len(d.MaintainersEmails) == 0 {
		return d.AuthorsEmails
	}
	return d.MaintainersEmails
}

// AllCanDetect returns everything the bear can detect. Anything it can fix
// it can necessarily also detect.
func (d *Declaration) AllCanDetect() []string {
	seen := make(map[string]struct{}, len(d.CanDetect)+len(d.CanFix))
	var all []string
	for _, s := range append(append([]string{}, d.CanDetect...), d.CanFix...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		all = append(all, s)
	}
	return all
}

// MissingDependencies returns the declared dependencies whose names are not
// in the resolved set.
func (d *Declaration) MissingDependencies(resolved []string) []*Declaration {
	have := make(map[string]struct{}, len(resolved))
	for _, name := range resolved {
		have[name] = struct{}{}
	}
	var missing []*Declaration
	for _, dep := range d.Deps {
		if _, ok := have[dep.Name]; !ok {
			missing = append(missing, dep)
		}
	}
	return missing
}

// NonOptionalSettings collects the parameters the user must supply, queried
// recursively through dependencies when recurse is set. Dependency entries
// are shadowed by the bear's own parameters of the same name.
func (d *Declaration) NonOptionalSettings(recurse bool) map[string]Param {
	settings := make(map[string]Param)
	if recurse {
		for _, dep := range d.Deps {
			for name, p := range dep.NonOptionalSettings(true) {
				settings[name] = p
			}
		}
	}
	for _, p := range d.Params {
		if !p.Optional() {
			settings[p.Name] = p
		}
	}
	return settings
}
