package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RaiVaibhav/coala/internal/hclconf"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.coafile.hcl"), []byte(content), 0o644))
}

func TestApp_RunsLocalBearPerFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "long.txt")
	require.NoError(t, os.WriteFile(target, []byte("short\n"+strings.Repeat("x", 50)+"\n"), 0o644))

	writeConfig(t, dir, fmt.Sprintf(`
section "default" {
  bears           = ["LineLengthBear"]
  files           = [%q]
  max_line_length = 10
}
`, target))

	out := &bytes.Buffer{}
	cfg, err := NewConfig(Config{ConfigPath: dir, LogLevel: "info"})
	require.NoError(t, err)

	a := NewApp(out, cfg, hclconf.NewLoader())
	require.NoError(t, a.Run(context.Background(), cfg))

	logText := out.String()
	require.Contains(t, logText, "Bear finished.")
	require.Contains(t, logText, "results=1")
}

func TestApp_LocalBearWithoutFilesWarns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `
section "default" {
  bears = ["LineLengthBear"]
}
`)

	out := &bytes.Buffer{}
	cfg, err := NewConfig(Config{ConfigPath: dir, LogLevel: "info"})
	require.NoError(t, err)

	a := NewApp(out, cfg, hclconf.NewLoader())
	require.NoError(t, a.Run(context.Background(), cfg))
	require.Contains(t, out.String(), "Local bear has no files to run on.")
}

func TestApp_UnknownSectionWarns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `
section "default" {
  bears = []
}
`)

	out := &bytes.Buffer{}
	cfg, err := NewConfig(Config{ConfigPath: dir, LogLevel: "info", Sections: []string{"missing"}})
	require.NoError(t, err)

	a := NewApp(out, cfg, hclconf.NewLoader())
	require.NoError(t, a.Run(context.Background(), cfg))
	require.Contains(t, out.String(), "The requested section does not exist.")
}

func TestApp_InvalidProfileSpecDisablesProfiling(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(target, []byte("ok\n"), 0o644))
	writeConfig(t, dir, fmt.Sprintf(`
section "default" {
  bears = ["LineLengthBear"]
  files = [%q]
}
`, target))

	out := &bytes.Buffer{}
	cfg, err := NewConfig(Config{ConfigPath: dir, LogLevel: "info", ProfileBears: "true, dump_to(a"})
	require.NoError(t, err)

	a := NewApp(out, cfg, hclconf.NewLoader())
	require.NoError(t, a.Run(context.Background(), cfg))
	require.Contains(t, out.String(), "Invalid arguments to --profile-bears")
	require.Contains(t, out.String(), "Run finished.")
}

func TestNewApp_PanicsOnBrokenConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `section "broken" {`)

	cfg, err := NewConfig(Config{ConfigPath: dir})
	require.NoError(t, err)

	require.Panics(t, func() {
		NewApp(&bytes.Buffer{}, cfg, hclconf.NewLoader())
	})
}

func TestNewConfig_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := NewConfig(Config{})
	require.Error(t, err)

	cfg, err := NewConfig(Config{ConfigPath: "."})
	require.NoError(t, err)
	require.Equal(t, "hcl", cfg.ConfigFormat)
}
