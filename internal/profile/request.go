// Package profile implements the statistical profiling instrument: a scoped
// CPU profiler wrapped around one bear invocation, the parsed profiling
// request with its small post-processing command language, and the report
// machinery that turns a raw profile into a trimmed, colored table or a file.
package profile

import (
	"errors"
	"strings"
)

// Mode is the terminal state of a profiling request. The states are
// mutually exclusive.
type Mode int

const (
	// Disabled means no profiling at all.
	Disabled Mode = iota
	// Dump writes the raw profile to <section>_<bear>.prof and skips the
	// rendered report.
	Dump
	// Console renders the colored report table to the output writer.
	Console
	// File appends the rendered report to a user-specified path.
	File
)

// Command is one parsed post-processing command: a name, its optional
// arguments, and the raw token for warnings that echo the user's spelling.
type Command struct {
	Name string
	Args []string
	Raw  string
}

// Request describes whether profiling is enabled and what to do with the
// captured profile.
type Request struct {
	Mode Mode
	// Path is the report file path in File mode, or the optional dump
	// subdirectory in Dump mode.
	Path     string
	Commands []Command
	NoTrim   bool
}

// Enabled reports whether any profiling should happen.
func (r *Request) Enabled() bool {
	return r != nil && r.Mode != Disabled
}

// ErrUnbalanced is returned when a profiling request has unbalanced
// parentheses. The request yields no tokens in that case.
var ErrUnbalanced = errors.New("unbalanced parentheses in profiler request")

// ParenthesisSplit splits a comma-separated request on top-level commas
// only, so command arguments like "dump(a,b)" survive as one token.
// Unbalanced input is an error and produces no tokens.
func ParenthesisSplit(sentence string) ([]string, error) {
	sentence = strings.Trim(sentence, ",")
	depth := 0
	var tokens []string
	start := 0
	for i, c := range sentence {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, ErrUnbalanced
			}
		case ',':
			if depth == 0 {
				tokens = append(tokens, sentence[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, ErrUnbalanced
	}
	tokens = append(tokens, sentence[start:])

	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(strings.Trim(strings.TrimSpace(t), ","))
		if t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// canonicalName lowercases a command name and folds the pstats-style
// underscore spelling into the hyphenated one.
func canonicalName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// parseCommand splits one token into name and arguments. Argument values
// are trimmed and stripped of quotes; grammar validation (arity, known
// names) happens later, per command, when the report applies them.
func parseCommand(token string) Command {
	cmd := Command{Raw: token}
	open := strings.Index(token, "(")
	if open < 0 {
		cmd.Name = canonicalName(token)
		return cmd
	}
	cmd.Name = canonicalName(token[:open])
	inner := strings.TrimSuffix(strings.TrimSpace(token[open+1:]), ")")
	for _, arg := range strings.Split(inner, ",") {
		arg = strings.Trim(strings.TrimSpace(arg), `'"`)
		if arg != "" {
			cmd.Args = append(cmd.Args, arg)
		}
	}
	return cmd
}

// isFalsey mirrors the accepted "off" spellings of the CLI flags.
func isFalsey(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "" || s == "false"
}

// ParseRequest builds a Request from the two profiling flags. spec is the
// report directive ("true" for console, a path for a file report, followed
// by post-processing commands); dump requests a raw profile dump ("true"
// for the working directory, anything else a subdirectory). Dump wins when
// both are given. A split failure is returned to the caller, who reports it
// and runs without profiling.
func ParseRequest(spec, dump string) (*Request, error) {
	if !isFalsey(dump) {
		req := &Request{Mode: Dump}
		if strings.ToLower(strings.TrimSpace(dump)) != "true" {
			req.Path = strings.TrimSpace(dump)
		}
		return req, nil
	}
	if isFalsey(spec) {
		return &Request{Mode: Disabled}, nil
	}

	tokens, err := ParenthesisSplit(spec)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return &Request{Mode: Disabled}, nil
	}

	req := &Request{}
	first := tokens[0]
	if strings.EqualFold(first, "true") {
		req.Mode = Console
	} else {
		req.Mode = File
		req.Path = first
	}

	for _, token := range tokens[1:] {
		cmd := parseCommand(token)
		if cmd.Name == "no-trim" {
			req.NoTrim = true
		}
		req.Commands = append(req.Commands, cmd)
	}
	return req, nil
}
