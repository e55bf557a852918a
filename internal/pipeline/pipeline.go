// Package pipeline is the outward-facing orchestrator for one bear
// invocation: it resolves configuration, selects at most one instrumentation
// layer, invokes the bear's run handler, normalizes the output into a
// concrete result list and classifies any failure. A failed invocation
// yields zero results plus diagnostics; it never aborts sibling invocations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	rdebug "runtime/debug"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/RaiVaibhav/coala/internal/bears"
	"github.com/RaiVaibhav/coala/internal/ctxlog"
	"github.com/RaiVaibhav/coala/internal/debug"
	"github.com/RaiVaibhav/coala/internal/profile"
	"github.com/RaiVaibhav/coala/internal/registry"
	"github.com/RaiVaibhav/coala/internal/resolve"
	"github.com/RaiVaibhav/coala/internal/settings"
)

// State names the stages one invocation moves through.
type State int

const (
	StateConfiguring State = iota
	StateInvoking
	StateNormalizing
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateInvoking:
		return "invoking"
	case StateNormalizing:
		return "normalizing"
	case StateDone:
		return "done"
	}
	return "aborted"
}

// DebugSession wires the stepping debugger's transcript streams.
type DebugSession struct {
	In  io.Reader
	Out io.Writer
}

// Overrides selects the instrumentation for one invocation. Debug takes
// precedence when both instruments are requested. TargetFile is the file a
// local bear processes; it is injected as an explicit argument.
type Overrides struct {
	Profile    *profile.Request
	Debug      *DebugSession
	TargetFile string
}

// Pipeline executes bears from a registry.
type Pipeline struct {
	registry *registry.Registry
	// out receives console profiling tables.
	out io.Writer
}

// New creates a Pipeline.
func New(reg *registry.Registry, out io.Writer) *Pipeline {
	return &Pipeline{registry: reg, out: out}
}

// Execute runs one bear invocation to completion and returns its
// materialized results.
//
// Routine-internal failures are contained: outside debug mode the error
// return is always nil and a failure yields an empty list plus diagnostics.
// In debug mode routine failures are re-raised to the caller, and a
// controlled termination signal from the debug session always propagates.
func (p *Pipeline) Execute(ctx context.Context, bearName string, section *settings.Section, ov *Overrides) ([]any, error) {
	if ov == nil {
		ov = &Overrides{}
	}
	ctx = ctxlog.With(ctx, "bear", bearName, "invocation", uuid.NewString())
	logger := ctxlog.FromContext(ctx)
	if ov.TargetFile != "" {
		logger = logger.With("file", ov.TargetFile)
		ctx = ctxlog.WithLogger(ctx, logger)
	}

	state := StateConfiguring
	logger.Debug("Running bear...", "state", state.String())

	decl, handler, ok := p.registry.Bear(bearName)
	if !ok {
		logger.Warn("The bear cannot be executed.", "error", fmt.Sprintf("no bear named %q is registered", bearName))
		return []any{}, nil
	}

	extra := map[string]cty.Value{}
	if decl.Kind == bears.KindLocal && ov.TargetFile != "" {
		extra["filename"] = cty.StringVal(ov.TargetFile)
	}
	args, err := resolve.Resolve(ctx, decl, section, extra)
	if err != nil {
		state = StateAborted
		logger.Warn("The bear cannot be executed.", "state", state.String(), "error", err.Error())
		return []any{}, nil
	}

	state = StateInvoking
	logger.Debug("Configuration resolved.", "state", state.String(), "arguments", args.Names())

	invoke := func() (out any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("bear %s panicked: %v\n%s", decl.Name, r, rdebug.Stack())
			}
		}()
		var input any
		if handler.NewInput != nil {
			input = handler.NewInput()
			if err := resolve.DecodeInto(args, input); err != nil {
				return nil, err
			}
		}
		fn := reflect.ValueOf(handler.Fn)
		callArgs := []reflect.Value{reflect.ValueOf(ctx)}
		if input == nil {
			callArgs = append(callArgs, reflect.Zero(fn.Type().In(1)))
		} else {
			callArgs = append(callArgs, reflect.ValueOf(input))
		}
		results := fn.Call(callArgs)
		if errResult := results[1].Interface(); errResult != nil {
			return nil, errResult.(error)
		}
		return results[0].Interface(), nil
	}

	var raw any
	debugMode := ov.Debug != nil
	switch {
	case debugMode:
		dbg := debug.New(ov.Debug.In, ov.Debug.Out)
		dbg.Bind(decl, args)
		var result []any
		result, err = debug.Run(dbg, invoke)
		raw = result
	case ov.Profile.Enabled():
		instrument := &profile.Instrument{
			Section: section.Name,
			Bear:    decl,
			Request: ov.Profile,
			Out:     p.out,
		}
		raw, err = instrument.Run(ctx, invoke)
	default:
		raw, err = invoke()
	}

	if err != nil {
		state = StateAborted
		if errors.Is(err, debug.ErrControlledTermination) {
			// Intentional stop from inside the session, not a failure.
			logger.Debug("Debug session terminated the invocation.", "state", state.String())
			return nil, err
		}
		if debugMode {
			// Re-raising is the intended behavior under the debugger.
			return nil, err
		}
		p.reportFailure(logger, decl, ov, err)
		return []any{}, nil
	}

	state = StateNormalizing
	logger.Debug("Normalizing results.", "state", state.String())
	results, err := normalize(decl, raw)
	if err != nil {
		state = StateAborted
		if debugMode {
			return nil, err
		}
		p.reportFailure(logger, decl, ov, err)
		return []any{}, nil
	}

	state = StateDone
	logger.Debug("Bear finished.", "state", state.String(), "results", len(results))
	return results, nil
}

// normalize materializes the raw output under a recovering scope: a lazy
// stream panicking mid-production is a routine failure like any other, not a
// process crash.
func normalize(decl *bears.Declaration, raw any) (results []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bear %s panicked during result production: %v\n%s", decl.Name, r, rdebug.Stack())
		}
	}()
	return bears.Normalize(raw), nil
}

// reportFailure emits the user-facing diagnostic for a routine failure,
// worded by the bear's kind, plus full detail at debug verbosity.
func (p *Pipeline) reportFailure(logger *slog.Logger, decl *bears.Declaration, ov *Overrides, err error) {
	if decl.Kind == bears.KindLocal && ov.TargetFile != "" {
		logger.Error(fmt.Sprintf("Bear %s failed to run on file %s. Take a look at debug messages for further information.",
			decl.Name, ov.TargetFile))
	} else {
		logger.Error(fmt.Sprintf("Bear %s failed to run. Take a look at debug messages for further information.", decl.Name))
	}
	logger.Debug("The bear raised an exception. If you are the author of this bear, please make sure to catch all errors.",
		"error", err.Error())
}
