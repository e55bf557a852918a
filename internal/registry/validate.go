package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/RaiVaibhav/coala/internal/bears"
	"github.com/RaiVaibhav/coala/internal/ctxlog"
)

// Validate performs a strict parity check between each bear's declaration
// and its Go handler: the handler signature, the presence of every declared
// parameter on the input struct, and the compatibility of their types.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Names() {
		e := r.byName[name]

		if err := validateHandlerFn(e.handler); err != nil {
			errs = append(errs, fmt.Sprintf("bear '%s': %v", name, err))
			continue
		}

		if e.handler.NewInput == nil {
			if len(e.decl.Params) > 0 {
				errs = append(errs, fmt.Sprintf("bear '%s': declaration has parameters, but Go handler has no input struct", name))
			}
			continue
		}

		declParams := make(map[string]bears.Param, len(e.decl.Params))
		for _, p := range e.decl.Params {
			declParams[p.Name] = p
		}

		goInputs := make(map[string]reflect.StructField)
		inputType := reflect.TypeOf(e.handler.NewInput())
		if inputType.Kind() != reflect.Ptr || inputType.Elem().Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("bear '%s': NewInput must return a pointer to a struct, got %s", name, inputType))
			continue
		}
		structType := inputType.Elem()
		for i := 0; i < structType.NumField(); i++ {
			field := structType.Field(i)
			if !field.IsExported() {
				continue
			}
			tagName := strings.Split(field.Tag.Get("coala"), ",")[0]
			if tagName != "" && tagName != "-" {
				goInputs[tagName] = field
			}
		}

		// Presence mismatches in both directions.
		for fieldName := range goInputs {
			if _, ok := declParams[fieldName]; !ok {
				errs = append(errs, fmt.Sprintf("bear '%s': Go struct has field for parameter '%s' which is not declared", name, fieldName))
			}
		}
		for paramName := range declParams {
			if _, ok := goInputs[paramName]; !ok {
				errs = append(errs, fmt.Sprintf("bear '%s': declaration has parameter '%s' which is not found in Go struct", name, paramName))
			}
		}

		// Type compatibility.
		for paramName, param := range declParams {
			goField, ok := goInputs[paramName]
			if !ok {
				continue
			}
			if param.Type.Equals(cty.DynamicPseudoType) {
				logger.Warn("Bear parameter declared with dynamic type, static checking disabled for it.", "bear", name, "parameter", paramName)
				continue
			}
			goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("bear '%s', parameter '%s': could not imply cty type from Go field type %s: %v", name, paramName, goField.Type, err))
				continue
			}
			if !param.Type.Equals(goFieldType) {
				errs = append(errs, fmt.Sprintf("bear '%s', parameter '%s': type mismatch, declaration requires '%s' but Go struct field '%s' provides '%s'",
					name, paramName, param.Type.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// validateHandlerFn checks the run handler signature:
// func(context.Context, *T) (any, error).
func validateHandlerFn(h *RegisteredBear) error {
	if h == nil || h.Fn == nil {
		return fmt.Errorf("no run handler registered")
	}
	fnType := reflect.TypeOf(h.Fn)
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("run handler is not a function")
	}
	if fnType.NumIn() != 2 || fnType.NumOut() != 2 {
		return fmt.Errorf("run handler must be func(ctx, input) (any, error)")
	}
	ctxType := reflect.TypeOf((*context.Context)(nil)).Elem()
	if !fnType.In(0).Implements(ctxType) {
		return fmt.Errorf("run handler's first argument must be context.Context")
	}
	errType := reflect.TypeOf((*error)(nil)).Elem()
	if !fnType.Out(1).Implements(errType) {
		return fmt.Errorf("run handler's second return value must be error")
	}
	return nil
}
