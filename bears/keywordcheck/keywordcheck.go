// Package keywordcheck provides a local bear that flags configurable keywords
// such as TODO and FIXME. Its settings can be fed from active aspects.
package keywordcheck

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/RaiVaibhav/coala/internal/aspects"
	"github.com/RaiVaibhav/coala/internal/assets"
	"github.com/RaiVaibhav/coala/internal/bears"
	"github.com/RaiVaibhav/coala/internal/registry"
)

// Result is one keyword occurrence.
type Result struct {
	File    string
	Line    int
	Keyword string
	Message string
}

// Input carries the bear's resolved arguments.
type Input struct {
	Filename        string   `coala:"filename"`
	Keywords        []string `coala:"keywords"`
	KeywordsURL     string   `coala:"keywords_url"`
	CaseInsensitive bool     `coala:"case_insensitive"`
}

// Module registers the bear.
type Module struct{}

func defaultKeywords() *cty.Value {
	v := cty.ListVal([]cty.Value{cty.StringVal("TODO"), cty.StringVal("FIXME")})
	return &v
}

func defaultCase() *cty.Value {
	v := cty.False
	return &v
}

func defaultURL() *cty.Value {
	v := cty.StringVal("")
	return &v
}

// Register implements the registry.Module interface.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBear(&bears.Declaration{
		Name:        "KeywordBear",
		Kind:        bears.KindLocal,
		Description: "Checks the code for given keywords.",
		Params: []bears.Param{
			{Name: "filename", Type: cty.String, Description: "The file to check."},
			{Name: "keywords", Type: cty.List(cty.String), Description: "Keywords to flag.", Default: defaultKeywords()},
			{Name: "keywords_url", Type: cty.String, Description: "URL of a newline-separated keyword list to merge in, downloaded once and cached.", Default: defaultURL()},
			{Name: "case_insensitive", Type: cty.Bool, Description: "Whether matching ignores case.", Default: defaultCase()},
		},
		AspectSettings: map[string]aspects.Value{
			"keywords":         aspects.TasteRef("Smell", "keywords"),
			"case_insensitive": aspects.Flag("Smell"),
		},
		CanDetect: []string{"Documentation", "Smell"},
		Authors:   []string{"The coala developers"},
		License:   "AGPL-3.0",
	}, &registry.RegisteredBear{
		NewInput: func() any { return new(Input) },
		Fn:       run,
	})
}

// run reads the whole file eagerly and returns a plain result slice.
func run(ctx context.Context, input *Input) (any, error) {
	declared := input.Keywords
	if input.KeywordsURL != "" {
		remote, err := downloadKeywords(ctx, input.KeywordsURL)
		if err != nil {
			return nil, err
		}
		declared = mergeKeywords(declared, remote)
	}

	f, err := os.Open(input.Filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	keywords := declared
	if input.CaseInsensitive {
		lowered := make([]string, len(keywords))
		for i, kw := range keywords {
			lowered[i] = strings.ToLower(kw)
		}
		keywords = lowered
	}

	var results []any
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if input.CaseInsensitive {
			line = strings.ToLower(line)
		}
		for i, kw := range keywords {
			if strings.Contains(line, kw) {
				results = append(results, Result{
					File:    input.Filename,
					Line:    lineNo,
					Keyword: declared[i],
					Message: fmt.Sprintf("The line contains the keyword %q.", declared[i]),
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// downloadKeywords fetches a newline-separated keyword list through the
// bear's cached download facility, so repeated runs reuse the local copy.
func downloadKeywords(ctx context.Context, url string) ([]string, error) {
	fetcher, err := assets.NewFetcher("KeywordBear")
	if err != nil {
		return nil, err
	}
	defer fetcher.Close()

	local, err := fetcher.DownloadCachedFile(ctx, url, path.Base(url))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(local)
	if err != nil {
		return nil, err
	}

	var keywords []string
	for _, line := range strings.Split(string(data), "\n") {
		if kw := strings.TrimSpace(line); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords, nil
}

// mergeKeywords appends remote keywords that are not already declared.
func mergeKeywords(declared, remote []string) []string {
	seen := make(map[string]bool, len(declared))
	for _, kw := range declared {
		seen[kw] = true
	}
	merged := append([]string(nil), declared...)
	for _, kw := range remote {
		if !seen[kw] {
			seen[kw] = true
			merged = append(merged, kw)
		}
	}
	return merged
}
