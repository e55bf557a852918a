// Package govet wraps the go vet tool as a global bear. Because it shells
// out, its profiling tables are filtered to the wrapper's own frames.
package govet

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/zclconf/go-cty/cty"

	"github.com/RaiVaibhav/coala/internal/bears"
	"github.com/RaiVaibhav/coala/internal/registry"
)

// Result is one diagnostic line emitted by the tool.
type Result struct {
	Message string
}

// Input carries the bear's resolved arguments.
type Input struct {
	Executable string `coala:"executable"`
	Target     string `coala:"target"`
}

// Module registers the bear.
type Module struct{}

func defaultExecutable() *cty.Value {
	v := cty.StringVal("go")
	return &v
}

func defaultTarget() *cty.Value {
	v := cty.StringVal("./...")
	return &v
}

// Register implements the registry.Module interface.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBear(&bears.Declaration{
		Name:        "GoVetBear",
		Kind:        bears.KindGlobal,
		Description: "Runs go vet over the configured target and reports each diagnostic.",
		ToolWrap:    true,
		Params: []bears.Param{
			{Name: "executable", Type: cty.String, Description: "The go executable to invoke.", Default: defaultExecutable()},
			{Name: "target", Type: cty.String, Description: "The package pattern to vet.", Default: defaultTarget()},
		},
		Languages: []string{"Go"},
		CanDetect: []string{"Unused Code", "Suspicious Construct"},
		Authors:   []string{"The coala developers"},
		License:   "AGPL-3.0",
	}, &registry.RegisteredBear{
		NewInput: func() any { return new(Input) },
		Fn:       run,
	})
}

func run(ctx context.Context, input *Input) (any, error) {
	cmd := exec.CommandContext(ctx, input.Executable, "vet", input.Target)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// go vet exits non-zero when it finds problems; the output is the
		// report, so only a missing executable is a real failure.
		if _, ok := err.(*exec.ExitError); !ok {
			return nil, err
		}
	}

	var results []any
	for _, line := range bytes.Split(bytes.TrimSpace(out), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		results = append(results, Result{Message: string(line)})
	}
	return results, nil
}
