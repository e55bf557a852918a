package app

import (
	"github.com/RaiVaibhav/coala/bears/govet"
	"github.com/RaiVaibhav/coala/bears/keywordcheck"
	"github.com/RaiVaibhav/coala/bears/linelength"
	"github.com/RaiVaibhav/coala/internal/registry"
)

// coreModules is the definitive list of all bear modules that are compiled
// into the coala binary.
var coreModules = []registry.Module{
	&linelength.Module{},
	&keywordcheck.Module{},
	&govet.Module{},
}
