// Package linelength provides a local bear that checks source lines against
// a maximum length. Results are produced lazily, one per offending line.
package linelength

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/zclconf/go-cty/cty"

	"github.com/RaiVaibhav/coala/internal/bears"
	"github.com/RaiVaibhav/coala/internal/registry"
)

// Result is one over-long line finding.
type Result struct {
	File    string
	Line    int
	Length  int
	Message string
}

// Input carries the bear's resolved arguments.
type Input struct {
	Filename      string `coala:"filename"`
	MaxLineLength int64  `coala:"max_line_length"`
}

// Module registers the bear.
type Module struct{}

func defaultMax() *cty.Value {
	v := cty.NumberIntVal(79)
	return &v
}

// Register implements the registry.Module interface.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBear(&bears.Declaration{
		Name:        "LineLengthBear",
		Kind:        bears.KindLocal,
		Description: "Yields a result for every line longer than the given limit.",
		Params: []bears.Param{
			{Name: "filename", Type: cty.String, Description: "The file to check."},
			{Name: "max_line_length", Type: cty.Number, Description: "Maximum number of characters per line.", Default: defaultMax()},
		},
		CanDetect: []string{"Formatting"},
		Authors:   []string{"The coala developers"},
		License:   "AGPL-3.0",
	}, &registry.RegisteredBear{
		NewInput: func() any { return new(Input) },
		Fn:       run,
	})
}

// run reads the file up front and closes it before returning, so an
// abandoned cursor can never hold the handle open. Findings are still
// produced lazily, one per offending line.
func run(ctx context.Context, input *Input) (any, error) {
	lines, err := readLines(input.Filename)
	if err != nil {
		return nil, err
	}

	i := 0
	return bears.FromFunc(func() (any, bool) {
		for ; i < len(lines); i++ {
			line := lines[i]
			if int64(len(line)) > input.MaxLineLength {
				lineNo := i + 1
				i++
				return Result{
					File:   input.Filename,
					Line:   lineNo,
					Length: len(line),
					Message: fmt.Sprintf("Line is longer than allowed. (%d > %d)",
						len(line), input.MaxLineLength),
				}, true
			}
		}
		return nil, false
	}), nil
}

func readLines(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
