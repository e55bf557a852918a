// Package resolve merges explicit section settings with aspect- and
// taste-derived defaults into the final arguments for one bear invocation.
//
// Precedence, lowest to highest: the bear's own parameter default, an
// aspect-derived default, and finally an explicit setting. An explicit
// setting suppresses aspect lookup for that parameter entirely.
package resolve

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/RaiVaibhav/coala/internal/bears"
	"github.com/RaiVaibhav/coala/internal/ctxlog"
	"github.com/RaiVaibhav/coala/internal/settings"
)

// ConfigurationError reports a non-optional parameter left unset after
// override resolution. It aborts the single invocation, not the process.
type ConfigurationError struct {
	Bear  string
	Param string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("bear %s: non-optional parameter %q is unset and has no default", e.Bear, e.Param)
}

// Arguments is the resolved parameter set for one invocation, in declaration
// order. It is built fresh per invocation and owns no long-lived state.
type Arguments struct {
	names  []string
	values map[string]cty.Value
}

// NewArguments creates an empty argument set.
func NewArguments() *Arguments {
	return &Arguments{values: make(map[string]cty.Value)}
}

// Set stores a value, keeping first-set order.
func (a *Arguments) Set(name string, v cty.Value) {
	if _, exists := a.values[name]; !exists {
		a.names = append(a.names, name)
	}
	a.values[name] = v
}

// Get returns the value for a parameter name.
func (a *Arguments) Get(name string) (cty.Value, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Has reports whether the parameter is bound.
func (a *Arguments) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Names returns bound parameter names in set order.
func (a *Arguments) Names() []string {
	return a.names
}

// Resolve produces the final arguments for a bear from the section's
// explicit settings, the section's active aspects and the bear's declared
// defaults. The extra map carries values injected by the executor itself
// (the target file of a local bear); they rank as explicit settings.
//
// With no active aspects the resolver is a pass-through over explicit
// settings and defaults. A non-optional parameter that is still unset
// afterwards yields a ConfigurationError.
func Resolve(ctx context.Context, decl *bears.Declaration, section *settings.Section, extra map[string]cty.Value) (*Arguments, error) {
	logger := ctxlog.FromContext(ctx)
	args := NewArguments()

	for _, param := range decl.Params {
		if v, ok := extra[param.Name]; ok {
			args.Set(param.Name, v)
			continue
		}

		if v, ok := section.Get(param.Name); ok {
			conv, err := convertValue(v, param.Type)
			if err != nil {
				return nil, fmt.Errorf("bear %s: setting %q: %w", decl.Name, param.Name, err)
			}
			args.Set(param.Name, conv)
			continue
		}

		// The section language is not an ordinary setting; it is supplied
		// by the section itself when the bear declares the parameter.
		if param.Name == "language" && section.Language != "" {
			args.Set(param.Name, cty.StringVal(section.Language))
			continue
		}

		if aspectValue, ok := decl.AspectSettings[param.Name]; ok && !section.Aspects.Empty() {
			if v, resolved := aspectValue.Resolve(section.Aspects); resolved {
				conv, err := convertValue(v, param.Type)
				if err != nil {
					logger.Warn("Aspect-derived value has incompatible type, falling back to default.",
						"bear", decl.Name, "parameter", param.Name, "error", err)
				} else {
					args.Set(param.Name, conv)
					continue
				}
			}
		}

		if param.Default != nil {
			args.Set(param.Name, *param.Default)
			continue
		}

		return nil, &ConfigurationError{Bear: decl.Name, Param: param.Name}
	}

	return args, nil
}

// convertValue coerces a setting value to the declared parameter type.
// Dynamically typed parameters accept anything.
func convertValue(v cty.Value, want cty.Type) (cty.Value, error) {
	if want.Equals(cty.DynamicPseudoType) || want == cty.NilType {
		return v, nil
	}
	return convert.Convert(v, want)
}
