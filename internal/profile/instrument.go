package profile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	rdebug "runtime/debug"
	"strings"

	"github.com/RaiVaibhav/coala/internal/bears"
	"github.com/RaiVaibhav/coala/internal/ctxlog"
)

// Instrument wraps one bear invocation in a profiling scope and routes the
// captured profile to the destination the request names. It never changes
// the invocation's observable return value.
type Instrument struct {
	Section string
	Bear    *bears.Declaration
	Request *Request
	// Out receives the colored console table.
	Out io.Writer
}

// Run invokes the bear inside the profiling scope. Lazy output streams are
// teed and one cursor is drained before the profiler stops, so the capture
// includes cost incurred during lazy production; the untouched cursor is
// returned to the caller for final materialization. The profiler is released
// on every path, including errors and panics.
func (in *Instrument) Run(ctx context.Context, invoke func() (any, error)) (any, error) {
	logger := ctxlog.FromContext(ctx)

	prof := NewProfiler()
	if err := prof.Start(); err != nil {
		logger.Warn("Could not start profiler, running without instrumentation.", "bear", in.Bear.Name, "error", err)
		return invoke()
	}
	defer prof.Stop()

	out, err := invoke()
	if err != nil {
		return nil, err
	}

	if stream, ok := out.(bears.Stream); ok {
		drain, keep := bears.Tee(stream)
		if err := drainAll(drain); err != nil {
			return nil, err
		}
		out = keep
	}

	prof.Stop()
	in.report(ctx, prof)
	return out, nil
}

// drainAll forces production of every item inside the profiling scope. A
// panic raised by lazy production surfaces as an error so the caller can
// classify it instead of crashing.
func drainAll(s bears.Stream) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lazy result production panicked: %v\n%s", r, rdebug.Stack())
		}
	}()
	for {
		if _, more := s.Next(); !more {
			return nil
		}
	}
}

// report routes the captured profile per the request's terminal state.
func (in *Instrument) report(ctx context.Context, prof *Profiler) {
	logger := ctxlog.FromContext(ctx)

	switch in.Request.Mode {
	case Dump:
		name := fmt.Sprintf("%s_%s.prof", in.Section, in.Bear.Name)
		if in.Request.Path != "" {
			if err := os.MkdirAll(in.Request.Path, 0o755); err != nil {
				logger.Warn("Could not write profile dump.", "bear", in.Bear.Name,
					"error", &DestinationError{Destination: in.Request.Path, Err: err})
				return
			}
			name = filepath.Join(in.Request.Path, name)
		}
		if err := os.WriteFile(name, prof.Raw(), 0o644); err != nil {
			logger.Warn("Could not write profile dump.", "bear", in.Bear.Name,
				"error", &DestinationError{Destination: name, Err: err})
			return
		}
		logger.Info("Raw profile dumped.", "bear", in.Bear.Name, "path", name)

	case File:
		rep, ok := in.parse(ctx, prof)
		if !ok {
			return
		}
		rep.Apply(ctx, in.Request.Commands)
		f, err := os.OpenFile(in.Request.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Warn("Report destination must be 'true' or a valid file path, report suppressed.",
				"bear", in.Bear.Name, "error", &DestinationError{Destination: in.Request.Path, Err: err})
			return
		}
		defer f.Close()
		trimTo := 15
		if in.Request.NoTrim {
			trimTo = 0
		}
		if err := rep.RenderText(f, trimTo); err != nil {
			logger.Warn("Failed to write profile report.", "bear", in.Bear.Name, "path", in.Request.Path, "error", err)
		}

	case Console:
		rep, ok := in.parse(ctx, prof)
		if !ok {
			return
		}
		rep.Apply(ctx, in.Request.Commands)
		if err := in.renderConsole(rep); err != nil {
			logger.Warn("Failed to render profile table.", "bear", in.Bear.Name, "error", err)
		}
	}
}

func (in *Instrument) parse(ctx context.Context, prof *Profiler) (*Report, bool) {
	p, err := prof.Profile()
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Captured profile could not be parsed.", "bear", in.Bear.Name, "error", err)
		return nil, false
	}
	return FromProfile(p), true
}

// renderConsole renders the report to a temporary file, parses the text
// back into rows, scopes them and prints the colored table. The temporary
// file is removed on every exit path.
func (in *Instrument) renderConsole(rep *Report) error {
	tmp, err := os.CreateTemp("", "coala-profile-*.txt")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := rep.RenderText(tmp, 0); err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}
	text, err := io.ReadAll(tmp)
	if err != nil {
		return err
	}

	banners, tableLines := SplitBanners(string(text))
	rows := FilterRows(ParseTable(tableLines), in.Bear, in.Request.NoTrim)

	if _, err := fmt.Fprintln(in.Out, strings.Join(banners, "\n")); err != nil {
		return err
	}
	return RenderColorTable(in.Out, rows)
}
