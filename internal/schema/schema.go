// Package schema holds the HCL-tagged structs that mirror the on-disk
// settings file format. The hclconf loader decodes into these and then
// translates them into the format-agnostic settings model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// SectionBlock represents a `section "name" { ... }` block. Besides the
// well-known attributes, arbitrary bear settings live in the remaining body.
type SectionBlock struct {
	Name     string   `hcl:"name,label"`
	Language string   `hcl:"language,optional"`
	Bears    []string `hcl:"bears,optional"`
	Aspects  []string `hcl:"aspects,optional"`
	Settings hcl.Body `hcl:",remain"`
}

// AspectBlock represents an `aspect "name" { ... }` block whose attributes
// form the aspect's taste table.
type AspectBlock struct {
	Name   string   `hcl:"name,label"`
	Tastes hcl.Body `hcl:",remain"`
}

// File represents the top-level structure of one settings file.
type File struct {
	Sections []*SectionBlock `hcl:"section,block"`
	Aspects  []*AspectBlock  `hcl:"aspect,block"`
	Body     hcl.Body        `hcl:",remain"`
}
