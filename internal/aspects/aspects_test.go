package aspects

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestFlag_Resolve(t *testing.T) {
	t.Parallel()

	active := NewActive(&Aspect{Name: "Smell"})

	v, ok := Flag("Smell").Resolve(active)
	require.True(t, ok)
	require.Equal(t, cty.True, v)

	v, ok = Flag("Spelling").Resolve(active)
	require.True(t, ok)
	require.Equal(t, cty.False, v)
}

func TestTasteRef_Resolve(t *testing.T) {
	t.Parallel()

	active := NewActive(&Aspect{
		Name:   "Smell",
		Tastes: map[string]cty.Value{"keywords": cty.TupleVal([]cty.Value{cty.StringVal("TODO")})},
	})

	v, ok := TasteRef("Smell", "keywords").Resolve(active)
	require.True(t, ok)
	require.True(t, v.Type().IsTupleType())

	// Inactive owning aspect produces nothing.
	_, ok = TasteRef("Spelling", "dict").Resolve(active)
	require.False(t, ok)

	// Unknown taste of an active aspect produces nothing either.
	_, ok = TasteRef("Smell", "unknown").Resolve(active)
	require.False(t, ok)
}

func TestActive_NilSafety(t *testing.T) {
	t.Parallel()

	var active *Active
	require.True(t, active.Empty())
	require.False(t, active.Has("Smell"))
	require.Nil(t, active.Names())

	v, ok := Flag("Smell").Resolve(active)
	require.True(t, ok)
	require.Equal(t, cty.False, v)
}

func TestActive_OrderAndDuplicates(t *testing.T) {
	t.Parallel()

	active := NewActive(
		&Aspect{Name: "B"},
		&Aspect{Name: "A"},
		&Aspect{Name: "B"},
	)
	require.Equal(t, []string{"B", "A"}, active.Names())
}
