package settings

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestSection_SetPreservesOrder(t *testing.T) {
	t.Parallel()

	s := NewSection("default")
	s.Set("b", cty.True)
	s.Set("a", cty.False)
	s.Set("b", cty.False)

	require.Equal(t, []string{"b", "a"}, s.Names())

	v, ok := s.Get("b")
	require.True(t, ok)
	require.Equal(t, cty.False, v)
	require.True(t, s.Has("a"))
	require.False(t, s.Has("missing"))
}

func TestModel_AddSectionKeepsPosition(t *testing.T) {
	t.Parallel()

	m := NewModel()
	m.AddSection(NewSection("first"))
	m.AddSection(NewSection("second"))

	replacement := NewSection("first")
	replacement.Language = "Go"
	m.AddSection(replacement)

	require.Equal(t, []string{"first", "second"}, m.SectionOrder)
	require.Equal(t, "Go", m.Sections["first"].Language)
}
