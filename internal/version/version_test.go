package version

import "testing"

func TestString(t *testing.T) {
	prevV, prevSHA, prevTime := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = prevV, prevSHA, prevTime }()

	if got, want := String(), "lapdelta dev (unknown, built unknown)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	Version, GitSHA, BuildTime = "v0.3.1", "a1b2c3d", "2024-03-02T15:00:00Z"
	if got, want := String(), "lapdelta v0.3.1 (a1b2c3d, built 2024-03-02T15:00:00Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
