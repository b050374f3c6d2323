package env

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestStatic_Provider(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)

	var p Provider = New("1.0", "/var/lib/app", clock)
	assert.Equal(t, "1.0", p.CurrentVersion())
	assert.Equal(t, "/var/lib/app", p.DocumentDir())
	assert.Equal(t, start, p.Now())

	clock.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), p.Now())
}

func TestStatic_SetVersion(t *testing.T) {
	s := New("1.0", "", nil)
	s.SetVersion("2.0")
	assert.Equal(t, "2.0", s.CurrentVersion())
}

func TestStatic_RealClockByDefault(t *testing.T) {
	s := New("1.0", "", nil)
	assert.WithinDuration(t, time.Now(), s.Now(), time.Minute)
}

func TestBuildVersion_NotEmpty(t *testing.T) {
	assert.NotEmpty(t, BuildVersion())
}
