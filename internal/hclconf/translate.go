package hclconf

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/RaiVaibhav/coala/internal/aspects"
	"github.com/RaiVaibhav/coala/internal/ctxlog"
	"github.com/RaiVaibhav/coala/internal/schema"
	"github.com/RaiVaibhav/coala/internal/settings"
)

// translateAspect converts an aspect block into the agnostic model. All
// remaining attributes of the block form the taste table.
func (l *Loader) translateAspect(ab *schema.AspectBlock) (*aspects.Aspect, error) {
	tastes, err := evaluateAttributes(ab.Tastes)
	if err != nil {
		return nil, fmt.Errorf("aspect %q: %w", ab.Name, err)
	}
	return &aspects.Aspect{Name: ab.Name, Tastes: tastes}, nil
}

// translateSection converts a section block into the agnostic model,
// resolving activated aspect names against the definitions loaded so far.
func (l *Loader) translateSection(ctx context.Context, sb *schema.SectionBlock, model *settings.Model) (*settings.Section, error) {
	logger := ctxlog.FromContext(ctx)

	section := settings.NewSection(sb.Name)
	section.Language = sb.Language
	section.Bears = sb.Bears

	var active []*aspects.Aspect
	for _, name := range sb.Aspects {
		aspect, ok := model.Aspects[name]
		if !ok {
			logger.Warn("Section activates an undefined aspect.", "section", sb.Name, "aspect", name)
			continue
		}
		active = append(active, aspect)
	}
	section.Aspects = aspects.NewActive(active...)

	values, err := evaluateAttributes(sb.Settings)
	if err != nil {
		return nil, fmt.Errorf("section %q: %w", sb.Name, err)
	}
	for _, name := range sortedKeys(values) {
		section.Set(name, values[name])
	}
	return section, nil
}

// evaluateAttributes evaluates every attribute of a body as a constant
// expression. Settings files carry literal values only; no eval context is
// provided on purpose.
func evaluateAttributes(body hcl.Body) (map[string]cty.Value, error) {
	if body == nil {
		return map[string]cty.Value{}, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	values := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		if valDiags.HasErrors() {
			return nil, fmt.Errorf("attribute %q: %w", name, valDiags)
		}
		values[name] = val
	}
	return values, nil
}

// sortedKeys gives a deterministic iteration order over evaluated
// attributes; hcl attribute maps are unordered.
func sortedKeys(m map[string]cty.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
