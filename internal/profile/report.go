package profile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	pprofile "github.com/google/pprof/profile"

	"github.com/RaiVaibhav/coala/internal/ctxlog"
)

// Row is one function's aggregated statistics.
type Row struct {
	Samples int64
	Flat    time.Duration
	Cum     time.Duration
	Name    string
	File    string
	Line    int64
}

// Report holds the structured profile data plus the formatting state the
// post-processing commands manipulate.
type Report struct {
	prof  *pprofile.Profile
	rows  []Row
	total time.Duration

	sortKeys  []string
	reversed  bool
	stripDirs bool
	limit     int
	// scope restricts rows to a set of function names (print-callers /
	// print-callees). nil means unrestricted.
	scope map[string]bool
}

// FromProfile aggregates a parsed profile into per-function rows. Flat time
// is attributed to the leaf frame of each sample, cumulative time to every
// distinct function on the stack.
func FromProfile(p *pprofile.Profile) *Report {
	sampleIdx, timeIdx := valueIndexes(p)

	type agg struct {
		row   Row
		order int
	}
	byKey := make(map[string]*agg)
	var total int64

	rowFor := func(fn *pprofile.Function, line int64) *agg {
		key := fn.Name + "\x00" + fn.Filename
		a, ok := byKey[key]
		if !ok {
			a = &agg{
				row:   Row{Name: fn.Name, File: fn.Filename, Line: line},
				order: len(byKey),
			}
			byKey[key] = a
		}
		return a
	}

	for _, s := range p.Sample {
		if len(s.Location) == 0 {
			continue
		}
		samples := int64(1)
		if sampleIdx >= 0 && sampleIdx < len(s.Value) {
			samples = s.Value[sampleIdx]
		}
		var nanos int64
		if timeIdx >= 0 && timeIdx < len(s.Value) {
			nanos = s.Value[timeIdx]
		}
		total += nanos

		seen := make(map[string]bool)
		for i, loc := range s.Location {
			if len(loc.Line) == 0 || loc.Line[0].Function == nil {
				continue
			}
			fn := loc.Line[0].Function
			a := rowFor(fn, loc.Line[0].Line)
			if i == 0 {
				a.row.Samples += samples
				a.row.Flat += time.Duration(nanos)
			}
			if !seen[fn.Name] {
				seen[fn.Name] = true
				a.row.Cum += time.Duration(nanos)
			}
		}
	}

	aggs := make([]*agg, 0, len(byKey))
	for _, a := range byKey {
		aggs = append(aggs, a)
	}
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].order < aggs[j].order })
	rows := make([]Row, len(aggs))
	for i, a := range aggs {
		rows[i] = a.row
	}

	return &Report{
		prof:     p,
		rows:     rows,
		total:    time.Duration(total),
		sortKeys: []string{"cumulative"},
	}
}

// valueIndexes locates the sample-count and cpu-time value columns of a
// profile, falling back to the last column for time.
func valueIndexes(p *pprofile.Profile) (sampleIdx, timeIdx int) {
	sampleIdx, timeIdx = -1, -1
	for i, vt := range p.SampleType {
		switch {
		case vt.Unit == "count":
			sampleIdx = i
		case vt.Unit == "nanoseconds":
			timeIdx = i
		}
	}
	if timeIdx < 0 && len(p.SampleType) > 0 {
		timeIdx = len(p.SampleType) - 1
	}
	return sampleIdx, timeIdx
}

// sortKeyNames maps accepted sort-by keys (both this tool's and pstats
// spellings) to the canonical key.
var sortKeyNames = map[string]string{
	"cumulative": "cumulative", "cum": "cumulative", "cumtime": "cumulative",
	"flat": "flat", "time": "flat", "tottime": "flat",
	"samples": "samples", "calls": "samples", "ncalls": "samples",
	"name": "name", "location": "name",
}

// Apply runs the post-processing commands in order. Per-command validation
// happens before applying: a zero-argument command given arguments, an
// argument command given none, or an unrecognized name abort the list and
// fall back to the default formatting (strip directory prefixes, sort by
// cumulative time); the failure is a warning, never fatal. An empty or
// entirely ineffective command list also yields the default.
func (r *Report) Apply(ctx context.Context, commands []Command) {
	logger := ctxlog.FromContext(ctx)

	applied := false
	for _, cmd := range commands {
		if cmd.Name == "no-trim" {
			// Marker consumed by the request; only its arity is checked.
			if len(cmd.Args) > 0 {
				logger.Warn("Report command does not accept arguments, applying default formatting.", "command", cmd.Raw)
				r.fallback()
				return
			}
			continue
		}
		if err := r.apply(cmd); err != nil {
			logger.Warn("Report command rejected, applying default formatting.", "command", cmd.Raw, "error", err)
			r.fallback()
			return
		}
		applied = true
	}
	if !applied {
		r.fallback()
	}
}

// fallback resets the report to the default formatting.
func (r *Report) fallback() {
	r.stripDirs = true
	r.sortKeys = []string{"cumulative"}
	r.reversed = false
	r.limit = 0
	r.scope = nil
}

func (r *Report) apply(cmd Command) error {
	zeroArg := func() error {
		if len(cmd.Args) > 0 {
			return &ReportCommandError{Command: cmd.Raw, Reason: "does not accept arguments"}
		}
		return nil
	}
	needArgs := func() error {
		if len(cmd.Args) == 0 {
			return &ReportCommandError{Command: cmd.Raw, Reason: "requires an argument"}
		}
		return nil
	}

	switch cmd.Name {
	case "reverse-order":
		if err := zeroArg(); err != nil {
			return err
		}
		r.reversed = !r.reversed
	case "strip-dirs":
		if err := zeroArg(); err != nil {
			return err
		}
		r.stripDirs = true
	case "add":
		if err := needArgs(); err != nil {
			return err
		}
		return r.addProfiles(cmd)
	case "dump-to":
		if err := needArgs(); err != nil {
			return err
		}
		f, err := os.Create(cmd.Args[0])
		if err != nil {
			return &ReportCommandError{Command: cmd.Raw, Reason: err.Error()}
		}
		defer f.Close()
		if err := r.prof.Write(f); err != nil {
			return &ReportCommandError{Command: cmd.Raw, Reason: err.Error()}
		}
	case "sort-by":
		if err := needArgs(); err != nil {
			return err
		}
		keys := make([]string, 0, len(cmd.Args))
		for _, arg := range cmd.Args {
			key, ok := sortKeyNames[canonicalName(arg)]
			if !ok {
				return &ReportCommandError{Command: cmd.Raw, Reason: fmt.Sprintf("unknown sort key %q", arg)}
			}
			keys = append(keys, key)
		}
		r.sortKeys = keys
	case "print-top":
		if err := needArgs(); err != nil {
			return err
		}
		n, err := strconv.Atoi(cmd.Args[0])
		if err != nil || n < 0 {
			return &ReportCommandError{Command: cmd.Raw, Reason: fmt.Sprintf("invalid row count %q", cmd.Args[0])}
		}
		r.limit = n
	case "print-callers":
		if err := needArgs(); err != nil {
			return err
		}
		return r.restrict(cmd, true)
	case "print-callees":
		if err := needArgs(); err != nil {
			return err
		}
		return r.restrict(cmd, false)
	default:
		return &ReportCommandError{Command: cmd.Raw, Reason: "unrecognized command"}
	}
	return nil
}

// addProfiles merges additional raw profile files into this report and
// rebuilds the rows.
func (r *Report) addProfiles(cmd Command) error {
	profs := []*pprofile.Profile{r.prof}
	for _, path := range cmd.Args {
		f, err := os.Open(path)
		if err != nil {
			return &ReportCommandError{Command: cmd.Raw, Reason: err.Error()}
		}
		p, err := pprofile.Parse(f)
		f.Close()
		if err != nil {
			return &ReportCommandError{Command: cmd.Raw, Reason: fmt.Sprintf("%s: %v", path, err)}
		}
		profs = append(profs, p)
	}
	merged, err := pprofile.Merge(profs)
	if err != nil {
		return &ReportCommandError{Command: cmd.Raw, Reason: err.Error()}
	}
	state := *r
	*r = *FromProfile(merged)
	r.sortKeys, r.reversed, r.stripDirs, r.limit, r.scope =
		state.sortKeys, state.reversed, state.stripDirs, state.limit, state.scope
	return nil
}

// restrict scopes the rows to the callers (or callees) of every function
// whose name matches the pattern, walking adjacent frames of each sample.
func (r *Report) restrict(cmd Command, callers bool) error {
	re, err := regexp.Compile(cmd.Args[0])
	if err != nil {
		return &ReportCommandError{Command: cmd.Raw, Reason: err.Error()}
	}
	keep := make(map[string]bool)
	for _, s := range r.prof.Sample {
		for i := 0; i+1 < len(s.Location); i++ {
			callee := frameName(s.Location[i])
			caller := frameName(s.Location[i+1])
			if callee == "" || caller == "" {
				continue
			}
			if callers && re.MatchString(callee) {
				keep[caller] = true
			}
			if !callers && re.MatchString(caller) {
				keep[callee] = true
			}
		}
	}
	r.scope = keep
	return nil
}

func frameName(loc *pprofile.Location) string {
	if len(loc.Line) == 0 || loc.Line[0].Function == nil {
		return ""
	}
	return loc.Line[0].Function.Name
}

// Rows returns the rows with scope, sort order, reversal and print-top
// limit applied.
func (r *Report) Rows() []Row {
	rows := make([]Row, 0, len(r.rows))
	for _, row := range r.rows {
		if r.scope != nil && !r.scope[row.Name] {
			continue
		}
		rows = append(rows, row)
	}

	less := func(a, b Row, key string) int {
		switch key {
		case "cumulative":
			return compare(int64(b.Cum), int64(a.Cum))
		case "flat":
			return compare(int64(b.Flat), int64(a.Flat))
		case "samples":
			return compare(b.Samples, a.Samples)
		default: // name
			switch {
			case a.Name < b.Name:
				return -1
			case a.Name > b.Name:
				return 1
			}
			return 0
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range r.sortKeys {
			if c := less(rows[i], rows[j], key); c != 0 {
				return c < 0
			}
		}
		return false
	})
	if r.reversed {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	if r.limit > 0 && len(rows) > r.limit {
		rows = rows[:r.limit]
	}
	return rows
}

// Total returns the profile's total captured time.
func (r *Report) Total() time.Duration {
	return r.total
}

// orderedByLabel renders the ordering banner text.
func (r *Report) orderedByLabel() string {
	labels := map[string]string{
		"cumulative": "cumulative time",
		"flat":       "internal time",
		"samples":    "sample count",
		"name":       "function name",
	}
	out := ""
	for i, key := range r.sortKeys {
		if i > 0 {
			out += ", "
		}
		out += labels[key]
	}
	if r.reversed {
		out += " (reversed)"
	}
	return out
}

// tail formats the trailing location column. Functions without a recorded
// source file render as a braced free-text cell, which is also what keeps
// the table parser's brace rule honest.
func (r *Report) tail(row Row) string {
	if row.File == "" {
		return "{built-in: " + row.Name + "}"
	}
	file := row.File
	if r.stripDirs {
		file = filepath.Base(file)
	}
	return fmt.Sprintf("%s:%d(%s)", file, row.Line, row.Name)
}

// RenderText writes the banners, header and rows as aligned text. trimTo
// caps the number of data rows; zero means all.
func (r *Report) RenderText(w io.Writer, trimTo int) error {
	rows := r.Rows()
	var totalSamples int64
	for _, row := range r.rows {
		totalSamples += row.Samples
	}
	if _, err := fmt.Fprintf(w, "%d samples collected in %s\n", totalSamples, r.total); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Ordered by: %s\n\n", r.orderedByLabel()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%8s %12s %8s %12s %8s  %s\n",
		"samples", "flat", "flat%", "cum", "cum%", "location"); err != nil {
		return err
	}
	if trimTo > 0 && len(rows) > trimTo {
		rows = rows[:trimTo]
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%8d %12s %7.2f%% %12s %7.2f%%  %s\n",
			row.Samples, row.Flat, r.percent(row.Flat), row.Cum, r.percent(row.Cum), r.tail(row)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) percent(d time.Duration) float64 {
	if r.total <= 0 {
		return 0
	}
	return float64(d) / float64(r.total) * 100
}

func compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
