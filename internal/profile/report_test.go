package profile

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	pprofile "github.com/google/pprof/profile"
	"github.com/stretchr/testify/require"

	"github.com/RaiVaibhav/coala/internal/testutil"
)

// syntheticProfile builds a small in-memory profile:
//
//	main.main -> main.work          (3 samples, 30ms, leaf: work)
//	main.main -> main.work -> main.helper (1 sample, 10ms, leaf: helper)
//
// main.helper has no recorded source file, exercising the braced tail cell.
func syntheticProfile() *pprofile.Profile {
	fnMain := &pprofile.Function{ID: 1, Name: "main.main", Filename: "/src/app/main.go"}
	fnWork := &pprofile.Function{ID: 2, Name: "main.work", Filename: "/src/app/work.go"}
	fnHelp := &pprofile.Function{ID: 3, Name: "main.helper"}

	locMain := &pprofile.Location{ID: 1, Line: []pprofile.Line{{Function: fnMain, Line: 12}}}
	locWork := &pprofile.Location{ID: 2, Line: []pprofile.Line{{Function: fnWork, Line: 34}}}
	locHelp := &pprofile.Location{ID: 3, Line: []pprofile.Line{{Function: fnHelp, Line: 56}}}

	return &pprofile.Profile{
		SampleType: []*pprofile.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: "cpu", Unit: "nanoseconds"},
		},
		Sample: []*pprofile.Sample{
			{Location: []*pprofile.Location{locWork, locMain}, Value: []int64{3, int64(30 * time.Millisecond)}},
			{Location: []*pprofile.Location{locHelp, locWork, locMain}, Value: []int64{1, int64(10 * time.Millisecond)}},
		},
		Location: []*pprofile.Location{locMain, locWork, locHelp},
		Function: []*pprofile.Function{fnMain, fnWork, fnHelp},
	}
}

func rowNames(rows []Row) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return names
}

func TestFromProfile_Aggregation(t *testing.T) {
	t.Parallel()

	rep := FromProfile(syntheticProfile())
	require.Equal(t, 40*time.Millisecond, rep.Total())

	byName := make(map[string]Row)
	for _, r := range rep.Rows() {
		byName[r.Name] = r
	}

	require.Equal(t, int64(3), byName["main.work"].Samples)
	require.Equal(t, 30*time.Millisecond, byName["main.work"].Flat)
	require.Equal(t, 40*time.Millisecond, byName["main.work"].Cum)

	require.Equal(t, time.Duration(0), byName["main.main"].Flat)
	require.Equal(t, 40*time.Millisecond, byName["main.main"].Cum)

	require.Equal(t, 10*time.Millisecond, byName["main.helper"].Flat)
	require.Equal(t, 10*time.Millisecond, byName["main.helper"].Cum)
}

func TestReport_SortAndReverse(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext()

	rep := FromProfile(syntheticProfile())
	rep.Apply(ctx, []Command{{Name: "sort-by", Args: []string{"flat"}, Raw: "sort_by(flat)"}})
	require.Equal(t, []string{"main.work", "main.helper", "main.main"}, rowNames(rep.Rows()))

	rep.Apply(ctx, []Command{
		{Name: "sort-by", Args: []string{"flat"}, Raw: "sort_by(flat)"},
		{Name: "reverse-order", Raw: "reverse_order"},
	})
	require.Equal(t, []string{"main.main", "main.helper", "main.work"}, rowNames(rep.Rows()))
}

func TestReport_PrintTop(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext()

	rep := FromProfile(syntheticProfile())
	rep.Apply(ctx, []Command{{Name: "print-top", Args: []string{"1"}, Raw: "print_top(1)"}})
	require.Len(t, rep.Rows(), 1)
}

func TestReport_InvalidCommandFallsBack(t *testing.T) {
	t.Parallel()
	ctx, rec := testutil.NewContext()

	rep := FromProfile(syntheticProfile())
	rep.Apply(ctx, []Command{
		{Name: "strip-dirs", Raw: "strip_dirs"},
		{Name: "bogus-command", Raw: "bogus_command"},
	})

	// The warning echoes the user's own spelling.
	require.NotEmpty(t, rec.Containing("bogus_command"))
	require.NotEmpty(t, rec.At(slog.LevelWarn))

	// Fallback formatting: cumulative order, directories stripped.
	require.Equal(t, []string{"main.work", "main.main", "main.helper"}, rowNames(rep.Rows()))
	require.True(t, rep.stripDirs)
}

func TestReport_ZeroArgCommandRejectsArguments(t *testing.T) {
	t.Parallel()
	ctx, rec := testutil.NewContext()

	rep := FromProfile(syntheticProfile())
	rep.Apply(ctx, []Command{{Name: "reverse-order", Args: []string{"x"}, Raw: "reverse_order(x)"}})

	require.NotEmpty(t, rec.At(slog.LevelWarn))
	require.False(t, rep.reversed)
}

func TestReport_RestrictToCallers(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext()

	rep := FromProfile(syntheticProfile())
	rep.Apply(ctx, []Command{{Name: "print-callers", Args: []string{"main.helper"}, Raw: "print_callers(main.helper)"}})
	require.Equal(t, []string{"main.work"}, rowNames(rep.Rows()))
}

func TestReport_RenderText(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext()

	rep := FromProfile(syntheticProfile())
	rep.Apply(ctx, nil)

	var buf bytes.Buffer
	require.NoError(t, rep.RenderText(&buf, 0))
	text := buf.String()

	require.Contains(t, text, "4 samples collected in 40ms")
	require.Contains(t, text, "Ordered by: cumulative time")
	require.Contains(t, text, "location")
	// Directories were stripped by the default formatting.
	require.Contains(t, text, "work.go:34(main.work)")
	require.NotContains(t, text, "/src/app/work.go")
	// Functions without a source file render as a braced cell.
	require.Contains(t, text, "{built-in: main.helper}")
}

func TestReport_RenderTextTrims(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext()

	rep := FromProfile(syntheticProfile())
	rep.Apply(ctx, nil)

	var buf bytes.Buffer
	require.NoError(t, rep.RenderText(&buf, 1))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// Two banners, one blank line, one header, one data row.
	require.Len(t, lines, 5)
}

func TestReport_DumpTo(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext()

	path := t.TempDir() + "/out.prof"
	rep := FromProfile(syntheticProfile())
	rep.Apply(ctx, []Command{{Name: "dump-to", Args: []string{path}, Raw: "dump_to(" + path + ")"}})

	f, err := pprofile.Parse(mustOpen(t, path))
	require.NoError(t, err)
	require.Len(t, f.Sample, 2)
}

func TestReport_AddMergesProfiles(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewContext()

	path := t.TempDir() + "/extra.prof"
	var buf bytes.Buffer
	require.NoError(t, syntheticProfile().Write(&buf))
	writeFile(t, path, buf.Bytes())

	rep := FromProfile(syntheticProfile())
	rep.Apply(ctx, []Command{{Name: "add", Args: []string{path}, Raw: "add(" + path + ")"}})

	require.Equal(t, 80*time.Millisecond, rep.Total())
}
