// Package debug implements the interactive stepping instrument: a
// transcript-driven session attached to one bear invocation. Production
// events of the wrapped routine (each yielded or returned item) are reported
// through the session transcript, and the invocation's lazy output is always
// materialized into a concrete list.
package debug

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/RaiVaibhav/coala/internal/bears"
	"github.com/RaiVaibhav/coala/internal/resolve"
)

// ErrControlledTermination is the explicit stop signal raised from inside a
// debug session via the abort command. It is intentional, never classified
// as a failure, and propagates only in debug mode.
var ErrControlledTermination = errors.New("debug session aborted")

// Debugger drives a textual command loop over an injectable input stream and
// writes the session transcript to an injectable output stream. A Debugger
// is transient: created per invocation, discarded after.
type Debugger struct {
	in  *bufio.Scanner
	out io.Writer

	decl *bears.Declaration
	args *resolve.Arguments
}

// New creates a Debugger bound to the given transcript streams.
func New(in io.Reader, out io.Writer) *Debugger {
	return &Debugger{in: bufio.NewScanner(in), out: out}
}

// Bind attaches the invocation's owner frame: the bear declaration and its
// resolved arguments, which the settings command introspects. Sessions
// without a bound owner report "owner not in scope" instead.
func (d *Debugger) Bind(decl *bears.Declaration, args *resolve.Arguments) {
	d.decl = decl
	d.args = args
}

// Run invokes the routine under the session and returns its output as a
// concrete list, never a lazy stream.
//
// An eager result is observed once as a single return event. A lazy stream
// is single-stepped: every production event appears in the transcript as a
// distinct step before the item is appended, and stepping never alters item
// order or count. Command input exhaustion resumes automatically.
func Run(d *Debugger, invoke func() (any, error)) ([]any, error) {
	out, err := invoke()
	if err != nil {
		return nil, err
	}

	label := "anonymous routine"
	if d.decl != nil {
		label = d.decl.Name
	}
	fmt.Fprintf(d.out, "> %s\n", label)

	stream, lazy := out.(bears.Stream)
	if !lazy {
		if err := d.pause(); err != nil {
			return nil, err
		}
		result := bears.Normalize(out)
		fmt.Fprintf(d.out, "-> return %v\n", result)
		return result, nil
	}

	result := []any{}
	for {
		if err := d.pause(); err != nil {
			return nil, err
		}
		item, more, err := step(stream)
		if err != nil {
			return nil, err
		}
		if !more {
			fmt.Fprintln(d.out, "-> return")
			return result, nil
		}
		fmt.Fprintf(d.out, "-> yield %v\n", item)
		result = append(result, item)
	}
}

// step advances the stream by one production event, converting a panic raised
// by lazy production into an error the pipeline can re-raise.
func step(s bears.Stream) (item any, more bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("routine panicked during result production: %v", r)
		}
	}()
	item, more = s.Next()
	return item, more, nil
}

// pause reads commands until one resumes execution. quit behaves as a
// resume, matching the session's historical behavior; abort is the explicit
// termination signal.
func (d *Debugger) pause() error {
	for {
		if !d.in.Scan() {
			// Input exhausted: keep going rather than hanging the session.
			return nil
		}
		cmd := strings.TrimSpace(d.in.Text())
		switch cmd {
		case "", "c", "continue", "q", "quit", "s", "step":
			return nil
		case "abort":
			return ErrControlledTermination
		case "settings":
			d.printSettings()
		default:
			fmt.Fprintf(d.out, "(dbg) *** unknown command: %q\n", cmd)
		}
	}
}

// printSettings prints each argument name/value pair in declaration order.
// Arguments not yet bound show only their declared default.
func (d *Debugger) printSettings() {
	if d.decl == nil {
		fmt.Fprintln(d.out, "(dbg) owner not in scope")
		return
	}
	prefix := "(dbg) "
	for _, param := range d.decl.Params {
		value := "<unset>"
		if d.args != nil {
			if v, ok := d.args.Get(param.Name); ok {
				value = formatValue(v)
			} else if param.Default != nil {
				value = formatValue(*param.Default)
			}
		} else if param.Default != nil {
			value = formatValue(*param.Default)
		}
		fmt.Fprintf(d.out, "%s%s = %s\n", prefix, param.Name, value)
		prefix = ""
	}
}

// formatValue renders a cty value the way the transcript shows settings.
func formatValue(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	switch v.Type() {
	case cty.String:
		return fmt.Sprintf("%q", v.AsString())
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	case cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return fmt.Sprintf("%d", i)
		}
		return bf.Text('g', -1)
	default:
		return v.GoString()
	}
}
