package resolve

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DecodeInto binds resolved arguments onto a bear's input struct. Fields are
// matched by their `coala:"<param>"` tag; unbound fields keep their zero
// value. The registry's parity validation guarantees tag/parameter parity,
// so a missing argument here means the parameter was optional.
func DecodeInto(args *Arguments, input any) error {
	if input == nil {
		return nil
	}
	ptr := reflect.ValueOf(input)
	if ptr.Kind() != reflect.Ptr || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("input must be a pointer to a struct, got %T", input)
	}
	structVal := ptr.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName := strings.Split(field.Tag.Get("coala"), ",")[0]
		if tagName == "" || tagName == "-" {
			continue
		}
		val, ok := args.Get(tagName)
		if !ok {
			continue
		}

		fieldVal := structVal.Field(i)
		wantType, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface())
		if err != nil {
			return fmt.Errorf("field %s: could not imply cty type: %w", field.Name, err)
		}
		conv, err := convert.Convert(val, wantType)
		if err != nil {
			return fmt.Errorf("argument %q: %w", tagName, err)
		}
		if err := gocty.FromCtyValue(conv, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("argument %q: %w", tagName, err)
		}
	}
	return nil
}
