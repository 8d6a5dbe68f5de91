// Package testutil provides shared test infrastructure for the procsched simulator.
// It has no dependency on sim/ so that sim's own tests can import it.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// TimelineRow is one expected (tick, state) pair of a process timeline.
type TimelineRow struct {
	Tick  int64
	State string
}

// WriteTempFile writes content to name inside a per-test temporary directory
// and returns the full path.
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertTimeline compares a process timeline against the expected rows.
func AssertTimeline(t *testing.T, name string, want, got []TimelineRow) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("%s: timeline has %d events, want %d\n got: %v\nwant: %v", name, len(got), len(want), got, want)
		return
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("%s: event %d = %v, want %v", name, i, got[i], want[i])
		}
	}
}
