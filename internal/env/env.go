// Package env provides the environment the engine runs in: the current
// application version, the current time and the directory holding durable
// state.
package env

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/jonboulle/clockwork"
)

// Provider is the environment contract consumed by the engine.
//
// CurrentVersion must be stable within one process run. Versions are
// compared by equality only.
type Provider interface {
	CurrentVersion() string
	Now() time.Time
	DocumentDir() string
}

// Static is a Provider with a fixed version and directory.
type Static struct {
	version string
	dir     string
	clock   clockwork.Clock
}

// New creates a Static provider. A nil clock uses the real clock.
func New(version, dir string, clock clockwork.Clock) *Static {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Static{version: version, dir: dir, clock: clock}
}

func (s *Static) CurrentVersion() string { return s.version }

func (s *Static) Now() time.Time { return s.clock.Now() }

func (s *Static) DocumentDir() string { return s.dir }

// SetVersion replaces the reported version. Used by the scenario harness to
// simulate an upgrade between two runs.
func (s *Static) SetVersion(version string) {
	s.version = version
}

// BuildVersion returns the main module version recorded in the binary, or
// "devel" when it is not available.
func BuildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "devel"
	}
	return info.Main.Version
}

// DefaultDir returns the per-user directory for condition state.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "condwatch"), nil
}
