package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/condwatch/internal/condition"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(condition.Definition{Name: "rate", Type: condition.CountLaunch}))

	def, err := r.Lookup("rate")
	require.NoError(t, err)
	assert.Equal(t, condition.CountLaunch, def.Type)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_LookupNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "missing", e.Condition)
}

func TestRegistry_ReplaceDefinition(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(condition.Definition{Name: "rate", Type: condition.CountLaunch}))
	require.NoError(t, r.Register(condition.Definition{Name: "rate", Type: condition.CountOpen}))

	def, err := r.Lookup("rate")
	require.NoError(t, err)
	assert.Equal(t, condition.CountOpen, def.Type)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_CopiesOptions(t *testing.T) {
	r := NewRegistry()
	exact := int64(3)
	require.NoError(t, r.Register(condition.Definition{Name: "rate", Type: condition.CountTriggered,
		Options: condition.Options{CountExact: &exact}}))

	exact = 99
	def, err := r.Lookup("rate")
	require.NoError(t, err)
	assert.Equal(t, int64(3), *def.Options.CountExact)
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	r := NewRegistry()
	err := r.Register(condition.Definition{Name: "", Type: condition.CountOpen})
	assert.True(t, IsInvalidCondition(err))
	assert.ErrorIs(t, err, condition.ErrEmptyName)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_NamesAndOfType(t *testing.T) {
	r := NewRegistry()
	for _, def := range []condition.Definition{
		{Name: "zeta", Type: condition.CountLaunch},
		{Name: "alpha", Type: condition.CountLaunch},
		{Name: "mid", Type: condition.VersionChange},
	} {
		require.NoError(t, r.Register(def))
	}

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Names())

	launches := r.OfType(condition.CountLaunch)
	require.Len(t, launches, 2)
	assert.Equal(t, "alpha", launches[0].Name)
	assert.Equal(t, "zeta", launches[1].Name)

	assert.Empty(t, r.OfType(condition.CountOpen))
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(condition.Definition{Name: "rate", Type: condition.CountLaunch}))

	assert.True(t, r.Remove("rate"))
	assert.False(t, r.Remove("rate"))
	_, err := r.Lookup("rate")
	assert.True(t, IsNotFound(err))
}
