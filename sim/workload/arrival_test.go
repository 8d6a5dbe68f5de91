package workload

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsched/procsched/sim"
	"github.com/procsched/procsched/sim/internal/testutil"
)

func TestLoadArrivals_YAML(t *testing.T) {
	path := testutil.WriteTempFile(t, "arrivals.yaml", `
processes:
  - {arrival: 0, cpu: 5, priority: 3, name: A}
  - {arrival: 0, cpu: 3, name: B, user: true}
  - {arrival: 4, cpu: 2}
`)

	arrivals, err := LoadArrivals(path)
	require.NoError(t, err)
	require.Len(t, arrivals, 3)

	assert.Equal(t, sim.Arrival{Tick: 0, Spec: sim.ProcessSpec{Name: "A", CPUTime: 5, StaticPriority: 3}}, arrivals[0])
	assert.True(t, arrivals[1].Spec.IsUserTask)
	assert.Equal(t, int64(4), arrivals[2].Tick)
	assert.Equal(t, "", arrivals[2].Spec.Name, "empty names are defaulted at admission")
}

func TestLoadArrivals_YAMLUnknownField_Rejected(t *testing.T) {
	path := testutil.WriteTempFile(t, "arrivals.yml", `
processes:
  - {arrival: 0, cpu: 5, burst: 9}
`)
	_, err := LoadArrivals(path)
	assert.Error(t, err)
}

func TestLoadArrivals_CSV(t *testing.T) {
	path := testutil.WriteTempFile(t, "arrivals.csv", "arrival,cpu,priority,name,user\n0,5,1,A,false\n1,3,,B,\n2,2\n")

	arrivals, err := LoadArrivals(path)
	require.NoError(t, err)
	require.Len(t, arrivals, 3)

	assert.Equal(t, "A", arrivals[0].Spec.Name)
	assert.Equal(t, 1, arrivals[0].Spec.StaticPriority)
	assert.Equal(t, int64(3), arrivals[1].Spec.CPUTime)
	assert.Equal(t, 0, arrivals[1].Spec.StaticPriority)
	assert.Equal(t, int64(2), arrivals[2].Tick)
}

func TestLoadArrivals_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    error
	}{
		{"descending ticks", "a.csv", "arrival,cpu\n3,1\n2,1\n", sim.ErrOutOfOrderArrival},
		{"zero cpu", "a.csv", "arrival,cpu\n0,0\n", sim.ErrInvalidConfiguration},
		{"negative arrival", "a.yaml", "processes:\n  - {arrival: -1, cpu: 1}\n", sim.ErrInvalidConfiguration},
		{"bad header", "a.csv", "tick,cpu\n0,1\n", sim.ErrInvalidConfiguration},
		{"bad number", "a.csv", "arrival,cpu\nx,1\n", sim.ErrInvalidConfiguration},
		{"unknown extension", "a.json", "[]", sim.ErrInvalidConfiguration},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadArrivals(testutil.WriteTempFile(t, tc.file, tc.content))
			assert.True(t, errors.Is(err, tc.want), "got %v, want %v", err, tc.want)
		})
	}
}

func TestLoadArrivals_MissingFile(t *testing.T) {
	_, err := LoadArrivals(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestWriteArrivalsCSV_LoadsBack(t *testing.T) {
	// GIVEN a generated workload written as CSV
	arrivals, err := Generate(defaultSpec())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteArrivalsCSV(&buf, arrivals))

	// WHEN it is loaded again
	loaded, err := LoadArrivals(testutil.WriteTempFile(t, "gen.csv", buf.String()))

	// THEN the sequence is unchanged
	require.NoError(t, err)
	assert.Equal(t, arrivals, loaded)
}

func TestWriteArrivalsYAML_LoadsBack(t *testing.T) {
	arrivals := []sim.Arrival{
		{Tick: 0, Spec: sim.ProcessSpec{Name: "a", CPUTime: 3, StaticPriority: 2}},
		{Tick: 4, Spec: sim.ProcessSpec{Name: "b", CPUTime: 1, StaticPriority: 7, IsUserTask: true}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteArrivalsYAML(&buf, arrivals))
	assert.Contains(t, buf.String(), "processes:")

	loaded, err := LoadArrivals(testutil.WriteTempFile(t, "gen.yaml", buf.String()))
	require.NoError(t, err)
	assert.Equal(t, arrivals, loaded)
}
