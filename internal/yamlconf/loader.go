// Package yamlconf implements the settings.Loader interface for YAML
// settings files, producing the same format-agnostic model as the HCL
// loader.
package yamlconf

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/RaiVaibhav/coala/internal/aspects"
	"github.com/RaiVaibhav/coala/internal/ctxlog"
	"github.com/RaiVaibhav/coala/internal/fsutil"
	"github.com/RaiVaibhav/coala/internal/settings"
)

// Extension is the file suffix the loader searches for when given a
// directory.
const Extension = ".coafile.yaml"

// document mirrors the YAML settings file layout.
type document struct {
	Aspects  map[string]aspectDoc  `yaml:"aspects"`
	Sections map[string]sectionDoc `yaml:"sections"`
}

type aspectDoc struct {
	Tastes map[string]any `yaml:"tastes"`
}

type sectionDoc struct {
	Language string         `yaml:"language"`
	Bears    []string       `yaml:"bears"`
	Aspects  []string       `yaml:"aspects"`
	Settings map[string]any `yaml:"settings"`
}

// Loader loads YAML settings files.
type Loader struct{}

// NewLoader creates a YAML settings loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads all settings files under the given paths into the unified
// model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*settings.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := settings.NewModel()

	var filePaths []string
	for _, path := range paths {
		found, err := fsutil.FindFilesByExtension(path, Extension)
		if err != nil {
			return nil, fmt.Errorf("failed to locate settings files under %s: %w", path, err)
		}
		filePaths = append(filePaths, found...)
	}
	if len(filePaths) == 0 {
		logger.Warn("No settings files found.", "paths", paths, "extension", Extension)
		return model, nil
	}

	for _, filePath := range filePaths {
		src, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if err := l.loadBytes(ctx, filePath, src, model); err != nil {
			return nil, fmt.Errorf("failed to process settings file %s: %w", filePath, err)
		}
		logger.Debug("Loaded settings file.", "file", filePath)
	}

	logger.Info("Settings loaded.", "sections", len(model.Sections), "aspects", len(model.Aspects))
	return model, nil
}

// LoadBytes parses a single in-memory settings document.
func (l *Loader) LoadBytes(ctx context.Context, filename string, src []byte) (*settings.Model, error) {
	model := settings.NewModel()
	if err := l.loadBytes(ctx, filename, src, model); err != nil {
		return nil, err
	}
	return model, nil
}

func (l *Loader) loadBytes(ctx context.Context, filename string, src []byte, model *settings.Model) error {
	logger := ctxlog.FromContext(ctx)

	var doc document
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	for _, name := range sortedKeys(doc.Aspects) {
		tastes := make(map[string]cty.Value)
		for tasteName, raw := range doc.Aspects[name].Tastes {
			val, err := toCty(raw)
			if err != nil {
				return fmt.Errorf("aspect %q, taste %q: %w", name, tasteName, err)
			}
			tastes[tasteName] = val
		}
		model.Aspects[name] = &aspects.Aspect{Name: name, Tastes: tastes}
	}

	for _, name := range sortedKeys(doc.Sections) {
		sd := doc.Sections[name]
		section := settings.NewSection(name)
		section.Language = sd.Language
		section.Bears = sd.Bears

		var active []*aspects.Aspect
		for _, aspectName := range sd.Aspects {
			aspect, ok := model.Aspects[aspectName]
			if !ok {
				logger.Warn("Section activates an undefined aspect.", "section", name, "aspect", aspectName)
				continue
			}
			active = append(active, aspect)
		}
		section.Aspects = aspects.NewActive(active...)

		for _, settingName := range sortedKeys(sd.Settings) {
			val, err := toCty(sd.Settings[settingName])
			if err != nil {
				return fmt.Errorf("section %q, setting %q: %w", name, settingName, err)
			}
			section.Set(settingName, val)
		}
		model.AddSection(section)
	}
	return nil
}

// toCty converts a decoded YAML scalar or collection into a cty value.
func toCty(v any) (cty.Value, error) {
	switch val := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case bool:
		return cty.BoolVal(val), nil
	case int:
		return cty.NumberIntVal(int64(val)), nil
	case int64:
		return cty.NumberIntVal(val), nil
	case float64:
		return cty.NumberFloatVal(val), nil
	case string:
		return cty.StringVal(val), nil
	case []any:
		if len(val) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(val))
		for _, item := range val {
			conv, err := toCty(item)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, conv)
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		attrs := make(map[string]cty.Value, len(val))
		for k, item := range val {
			conv, err := toCty(item)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = conv
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported YAML value of type %T", v)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
