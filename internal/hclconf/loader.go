// Package hclconf implements the settings.Loader interface for HCL settings
// files (the default on-disk format).
package hclconf

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/RaiVaibhav/coala/internal/ctxlog"
	"github.com/RaiVaibhav/coala/internal/fsutil"
	"github.com/RaiVaibhav/coala/internal/schema"
	"github.com/RaiVaibhav/coala/internal/settings"
)

// Extension is the file suffix the loader searches for when given a
// directory.
const Extension = ".coafile.hcl"

// Loader loads HCL settings files.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a Loader with a fresh parser.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads all settings files under the given paths and translates them
// into the unified model. Later files override earlier sections of the same
// name.
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
	logger.Debug("Found settings files to load.", "files", filePaths)

	for _, filePath := range filePaths {
		hclFile, diags := l.parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", filePath, diags)
		}
		if err := l.loadFile(ctx, hclFile.Body, model); err != nil {
			return nil, fmt.Errorf("failed to process settings file %s: %w", filePath, err)
		}
		logger.Debug("Loaded settings file.", "file", filePath)
	}

	logger.Info("Settings loaded.", "sections", len(model.Sections), "aspects", len(model.Aspects))
	return model, nil
}

// LoadBytes parses a single in-memory settings document. Used by tests and
// by callers that already hold file content.
func (l *Loader) LoadBytes(ctx context.Context, filename string, src []byte) (*settings.Model, error) {
	hclFile, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse settings document %s: %w", filename, diags)
	}
	model := settings.NewModel()
	if err := l.loadFile(ctx, hclFile.Body, model); err != nil {
		return nil, err
	}
	return model, nil
}

// loadFile decodes one file body into the schema structs and merges the
// translation into the model. Aspect definitions are translated before
// sections so sections can activate aspects from the same file.
func (l *Loader) loadFile(ctx context.Context, body hcl.Body, model *settings.Model) error {
	var file schema.File
	if diags := gohcl.DecodeBody(body, nil, &file); diags.HasErrors() {
		return diags
	}

	for _, ab := range file.Aspects {
		aspect, err := l.translateAspect(ab)
		if err != nil {
			return err
		}
		model.Aspects[aspect.Name] = aspect
	}
	for _, sb := range file.Sections {
		section, err := l.translateSection(ctx, sb, model)
		if err != nil {
			return err
		}
		model.AddSection(section)
	}
	return nil
}
