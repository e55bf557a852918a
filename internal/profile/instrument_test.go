package profile

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RaiVaibhav/coala/internal/bears"
	"github.com/RaiVaibhav/coala/internal/testutil"
)

// Instrument tests share the process-global CPU profiler, so they do not run
// in parallel with each other.

func testBearDecl() *bears.Declaration {
	return &bears.Declaration{Name: "TestBear", Kind: bears.KindLocal}
}

func TestInstrument_DumpWritesRawProfile(t *testing.T) {
	ctx, _ := testutil.NewContext()
	dir := t.TempDir()

	in := &Instrument{
		Section: "default",
		Bear:    testBearDecl(),
		Request: &Request{Mode: Dump, Path: dir},
		Out:     &bytes.Buffer{},
	}

	out, err := in.Run(ctx, func() (any, error) {
		return []any{1, 2}, nil
	})
	require.NoError(t, err)
	require.Equal(t, []any{1, 2}, bears.Normalize(out))

	path := filepath.Join(dir, "default_TestBear.prof")
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestInstrument_StreamDrainedInsideScope(t *testing.T) {
	ctx, _ := testutil.NewContext()

	produced := 0
	stream := bears.FromFunc(func() (any, bool) {
		if produced >= 3 {
			return nil, false
		}
		produced++
		return produced, true
	})

	in := &Instrument{
		Section: "default",
		Bear:    testBearDecl(),
		Request: &Request{Mode: Dump, Path: t.TempDir()},
		Out:     &bytes.Buffer{},
	}

	out, err := in.Run(ctx, func() (any, error) { return stream, nil })
	require.NoError(t, err)

	// Every item was produced inside the profiling scope, yet the caller
	// still observes the full, ordered sequence.
	require.Equal(t, 3, produced)
	require.Equal(t, []any{1, 2, 3}, bears.Normalize(out))
}

func TestInstrument_StreamPanicReturnsError(t *testing.T) {
	ctx, _ := testutil.NewContext()

	n := 0
	stream := bears.FromFunc(func() (any, bool) {
		n++
		if n == 2 {
			panic("producer exploded")
		}
		return n, true
	})

	in := &Instrument{
		Section: "default",
		Bear:    testBearDecl(),
		Request: &Request{Mode: Dump, Path: t.TempDir()},
		Out:     &bytes.Buffer{},
	}

	var err error
	require.NotPanics(t, func() {
		_, err = in.Run(ctx, func() (any, error) { return stream, nil })
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "producer exploded")

	// The scope must be released: a fresh capture can start immediately.
	p := NewProfiler()
	require.NoError(t, p.Start())
	p.Stop()
}

func TestInstrument_ReleasesProfilerOnError(t *testing.T) {
	ctx, _ := testutil.NewContext()

	in := &Instrument{
		Section: "default",
		Bear:    testBearDecl(),
		Request: &Request{Mode: Console},
		Out:     &bytes.Buffer{},
	}

	boom := errors.New("boom")
	_, err := in.Run(ctx, func() (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	// The scope must be released: a fresh capture can start immediately.
	p := NewProfiler()
	require.NoError(t, p.Start())
	p.Stop()
}

func TestInstrument_BadReportDestinationSuppressed(t *testing.T) {
	ctx, rec := testutil.NewContext()

	in := &Instrument{
		Section: "default",
		Bear:    testBearDecl(),
		Request: &Request{Mode: File, Path: filepath.Join(t.TempDir(), "no", "such", "dir", "report.txt")},
		Out:     &bytes.Buffer{},
	}

	out, err := in.Run(ctx, func() (any, error) { return []any{"ok"}, nil })
	require.NoError(t, err)
	require.Equal(t, []any{"ok"}, bears.Normalize(out))

	require.NotEmpty(t, rec.Containing("Report destination must be 'true' or a valid file path"))
	require.NotEmpty(t, rec.At(slog.LevelWarn))
}

func TestInstrument_FileReportAppended(t *testing.T) {
	ctx, _ := testutil.NewContext()
	path := filepath.Join(t.TempDir(), "report.txt")

	in := &Instrument{
		Section: "default",
		Bear:    testBearDecl(),
		Request: &Request{Mode: File, Path: path},
		Out:     &bytes.Buffer{},
	}

	_, err := in.Run(ctx, func() (any, error) { return []any{}, nil })
	require.NoError(t, err)
	_, err = in.Run(ctx, func() (any, error) { return []any{}, nil })
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Two runs appended two reports.
	require.Equal(t, 2, bytes.Count(data, []byte("samples collected")))
}

func TestInstrument_ConsoleRendersBannersAndTable(t *testing.T) {
	ctx, _ := testutil.NewContext()
	out := &bytes.Buffer{}

	in := &Instrument{
		Section: "default",
		Bear:    testBearDecl(),
		Request: &Request{Mode: Console},
		Out:     out,
	}

	_, err := in.Run(ctx, func() (any, error) { return []any{}, nil })
	require.NoError(t, err)
	require.Contains(t, out.String(), "samples collected")
}

func TestProfiler_StopIdempotent(t *testing.T) {
	p := NewProfiler()
	require.NoError(t, p.Start())
	require.True(t, p.Active())
	p.Stop()
	p.Stop()
	require.False(t, p.Active())
}
