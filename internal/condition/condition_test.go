package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType_RoundTrip(t *testing.T) {
	for _, typ := range []Type{VersionChange, CountTriggered, CountLaunch, CountReactivation, CountOpen} {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
}

func TestParseType_Lenient(t *testing.T) {
	parsed, err := ParseType(" Count-Launch ")
	require.NoError(t, err)
	assert.Equal(t, CountLaunch, parsed)
}

func TestParseType_Unknown(t *testing.T) {
	_, err := ParseType("count_everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count_everything")
}

func TestType_TextMarshaling(t *testing.T) {
	text, err := CountOpen.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "count_open", string(text))

	var typ Type
	require.NoError(t, typ.UnmarshalText([]byte("version_change")))
	assert.Equal(t, VersionChange, typ)

	_, err = TypeUnknown.MarshalText()
	assert.Error(t, err)
}

func TestType_IsCount(t *testing.T) {
	assert.False(t, VersionChange.IsCount())
	assert.False(t, TypeUnknown.IsCount())
	assert.True(t, CountTriggered.IsCount())
	assert.True(t, CountOpen.IsCount())
}

func TestEvent_Type(t *testing.T) {
	assert.Equal(t, CountLaunch, EventLaunch.Type())
	assert.Equal(t, CountReactivation, EventReactivation.Type())
	assert.Equal(t, CountOpen, EventOpen.Type())
	assert.Equal(t, TypeUnknown, Event(42).Type())
}

func TestOptions_Matches(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		counter int64
		want    bool
	}{
		{"no thresholds", Options{}, 0, false},
		{"exact hit", Options{CountExact: Count(3)}, 3, true},
		{"exact miss", Options{CountExact: Count(3)}, 2, false},
		{"modulo zero counter", Options{CountModulo: Count(10)}, 0, true},
		{"modulo hit", Options{CountModulo: Count(10)}, 20, true},
		{"modulo miss", Options{CountModulo: Count(10)}, 11, false},
		{"either exact", Options{CountExact: Count(3), CountModulo: Count(10)}, 3, true},
		{"either modulo", Options{CountExact: Count(3), CountModulo: Count(10)}, 10, true},
		{"limit alone never matches", Options{LimitingActivationCount: Count(1)}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.Matches(tt.counter))
		})
	}
}

func TestOptions_HasThreshold(t *testing.T) {
	assert.False(t, Options{}.HasThreshold())
	assert.False(t, Options{LimitingActivationCount: Count(1)}.HasThreshold())
	assert.True(t, Options{CountExact: Count(0)}.HasThreshold())
	assert.True(t, Options{CountModulo: Count(2)}.HasThreshold())
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, Options{}.Validate())
	assert.NoError(t, Options{CountExact: Count(0), CountModulo: Count(1), LimitingActivationCount: Count(0)}.Validate())
	assert.Error(t, Options{CountExact: Count(-1)}.Validate())
	assert.Error(t, Options{CountModulo: Count(0)}.Validate())
	assert.Error(t, Options{LimitingActivationCount: Count(-2)}.Validate())
}

func TestOptions_CloneIsDeep(t *testing.T) {
	orig := Options{CountExact: Count(3)}
	clone := orig.Clone()
	*clone.CountExact = 99
	assert.Equal(t, int64(3), *orig.CountExact)
	assert.Nil(t, clone.CountModulo)
}

func TestDefinition_Validate(t *testing.T) {
	assert.ErrorIs(t, Definition{Type: CountOpen}.Validate(), ErrEmptyName)
	assert.Error(t, Definition{Name: "x"}.Validate())
	assert.Error(t, Definition{Name: "x", Type: CountOpen, Options: Options{CountModulo: Count(0)}}.Validate())

	// options on a version-change condition are ignored
	assert.NoError(t, Definition{Name: "x", Type: VersionChange, Options: Options{CountModulo: Count(0)}}.Validate())
}

func TestNormalizeName(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	assert.NotEqual(t, composed, decomposed)
	assert.Equal(t, NormalizeName(composed), NormalizeName(decomposed))
}

func TestStateOf(t *testing.T) {
	countDef := Definition{Name: "c", Type: CountTriggered, Options: Options{LimitingActivationCount: Count(2)}}

	state := StateOf(countDef, Record{Activations: 1})
	require.IsType(t, CountState{}, state)
	cs := state.(CountState)
	assert.Equal(t, int64(1), cs.Activations)
	assert.False(t, cs.Limited)
	require.NotNil(t, cs.Limit)
	assert.Equal(t, int64(2), *cs.Limit)

	cs = StateOf(countDef, Record{Activations: 2}).(CountState)
	assert.True(t, cs.Limited)

	// an explicit unlimit overrides the option
	cs = StateOf(countDef, Record{Activations: 2, LimitSet: true}).(CountState)
	assert.False(t, cs.Limited)
	assert.Nil(t, cs.Limit)

	versionDef := Definition{Name: "v", Type: VersionChange}
	assert.Equal(t, VersionState{}, StateOf(versionDef, Record{}))
	v := "1.0"
	assert.Equal(t, VersionState{Seen: true, Version: "1.0"}, StateOf(versionDef, Record{Baseline: &v}))
}

func TestRecord_CloneIsDeep(t *testing.T) {
	v := "1.0"
	rec := Record{Name: "r", Limit: Count(3), Baseline: &v}
	clone := rec.Clone()
	*clone.Limit = 9
	*clone.Baseline = "2.0"
	assert.Equal(t, int64(3), *rec.Limit)
	assert.Equal(t, "1.0", *rec.Baseline)
}
