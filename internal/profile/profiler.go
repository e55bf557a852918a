package profile

import (
	"bytes"
	"runtime/pprof"
	"sync"

	pprofile "github.com/google/pprof/profile"
)

// The CPU profiler underneath is process-global: only one capture can be
// active at a time. Each invocation still owns its own Profiler (and its own
// output buffer); the mutex serializes acquisition so concurrent workers
// never interleave captures.
var profMu sync.Mutex

// Profiler is the explicit profiling scope for one invocation. Acquire with
// Start, release with Stop; Stop is idempotent and must be deferred so the
// profiler can never leak enabled across invocations.
type Profiler struct {
	buf    bytes.Buffer
	active bool
}

// NewProfiler creates an inactive profiler.
func NewProfiler() *Profiler {
	return &Profiler{}
}

// Start acquires the profiling scope and begins capturing into the
// profiler's own buffer.
func (p *Profiler) Start() error {
	profMu.Lock()
	if err := pprof.StartCPUProfile(&p.buf); err != nil {
		profMu.Unlock()
		return err
	}
	p.active = true
	return nil
}

// Stop ends the capture and releases the scope. Safe to call multiple
// times.
func (p *Profiler) Stop() {
	if !p.active {
		return
	}
	pprof.StopCPUProfile()
	p.active = false
	profMu.Unlock()
}

// Active reports whether the capture is currently running.
func (p *Profiler) Active() bool {
	return p.active
}

// Raw returns the captured profile in pprof wire format.
func (p *Profiler) Raw() []byte {
	return p.buf.Bytes()
}

// Profile parses the captured bytes into a structured profile.
func (p *Profiler) Profile() (*pprofile.Profile, error) {
	return pprofile.Parse(bytes.NewReader(p.buf.Bytes()))
}
