package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/procsched/procsched/sim/trace"
)

// SimConfig is the full YAML configuration of a run or a sweep.
// Nil pointer fields mean "not set in YAML" and fall back to defaults.
type SimConfig struct {
	Threads   int             `yaml:"threads"`
	Horizon   int64           `yaml:"horizon"`
	Trace     string          `yaml:"trace"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Workload  WorkloadSpec    `yaml:"workload"`
	Sweep     SweepSpec       `yaml:"sweep"`
}

// SchedulerConfig selects a policy and optionally overrides its parameters.
type SchedulerConfig struct {
	Name               string   `yaml:"name"`
	Preemptive         *bool    `yaml:"preemptive"`
	TimeSlice          *int     `yaml:"time_slice"`
	MinTimeSlice       *int     `yaml:"min_time_slice"`
	TimeSliceIncrement *int     `yaml:"time_slice_increment"`
	BaseTimeSlice      *int     `yaml:"base_time_slice"`
	NQueues            *int     `yaml:"n_queues"`
	MinExp             *float64 `yaml:"min_exp"`
	ExpIncrement       *float64 `yaml:"exp_increment"`
}

// WorkloadSpec describes where arrivals come from: a file, or the random generator.
// ArrivalsFile takes precedence when set.
type WorkloadSpec struct {
	ArrivalsFile string  `yaml:"arrivals_file"`
	NProcesses   int     `yaml:"n_processes"`
	LensMean     float64 `yaml:"lens_mean"`
	LensStd      float64 `yaml:"lens_std"`
	Density      float64 `yaml:"density"`
	Seed         int64   `yaml:"seed"`
}

// SweepRange is one swept generator parameter: a single value, or [lo, hi]
// split into Groups points.
type SweepRange struct {
	Range     []float64 `yaml:"range"`
	Groups    int       `yaml:"groups"`
	Integer   bool      `yaml:"integer"`
	Geometric bool      `yaml:"geometric"`
}

// SweepSpec configures a parameter sweep over the workload generator.
type SweepSpec struct {
	Schedulers []SchedulerConfig `yaml:"schedulers"`
	Repeats    int               `yaml:"repeats"`
	SkipSingle bool              `yaml:"skip_single"`
	NProcesses SweepRange        `yaml:"n_processes"`
	LensMean   SweepRange        `yaml:"lens_mean"`
	LensStd    SweepRange        `yaml:"lens_std"`
	Density    SweepRange        `yaml:"density"`
}

// DefaultSimConfig returns the configuration used when no file is given.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Threads:   2,
		Trace:     string(trace.TraceLevelNone),
		Scheduler: SchedulerConfig{Name: "fcfs"},
		Workload: WorkloadSpec{
			NProcesses: 20,
			LensMean:   30,
			LensStd:    10,
			Density:    5.0,
			Seed:       42,
		},
		Sweep: SweepSpec{Repeats: 1},
	}
}

// LoadSimConfig reads a YAML configuration over DefaultSimConfig.
// Parsing is strict: unknown fields are errors.
func LoadSimConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultSimConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Validate checks slot count, trace level, scheduler names and parameter ranges.
func (c *SimConfig) Validate() error {
	if c.Threads <= 0 {
		return fmt.Errorf("%w: threads must be positive, got %d", ErrInvalidConfiguration, c.Threads)
	}
	if c.Horizon < 0 {
		return fmt.Errorf("%w: horizon must be non-negative, got %d", ErrInvalidConfiguration, c.Horizon)
	}
	if !trace.IsValidTraceLevel(c.Trace) {
		return fmt.Errorf("%w: unknown trace level %q", ErrInvalidConfiguration, c.Trace)
	}
	if _, err := c.Scheduler.Build(); err != nil {
		return err
	}
	if err := c.Workload.Validate(); err != nil {
		return err
	}
	for _, s := range c.Sweep.Schedulers {
		if _, err := s.Build(); err != nil {
			return err
		}
	}
	if c.Sweep.Repeats < 1 {
		return fmt.Errorf("%w: repeats must be positive, got %d", ErrInvalidConfiguration, c.Sweep.Repeats)
	}
	for name, r := range map[string]SweepRange{
		"n_processes": c.Sweep.NProcesses,
		"lens_mean":   c.Sweep.LensMean,
		"lens_std":    c.Sweep.LensStd,
		"density":     c.Sweep.Density,
	} {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("sweep %s: %w", name, err)
		}
	}
	return nil
}

// Params resolves the scheduler's defaults with any overrides applied.
func (c SchedulerConfig) Params() (SchedulerParams, error) {
	p, err := DefaultSchedulerParams(c.Name)
	if err != nil {
		return SchedulerParams{}, err
	}
	if c.Preemptive != nil {
		p.Preemptive = *c.Preemptive
	}
	if c.TimeSlice != nil {
		p.TimeSlice = *c.TimeSlice
	}
	if c.MinTimeSlice != nil {
		p.MinTimeSlice = *c.MinTimeSlice
	}
	if c.TimeSliceIncrement != nil {
		p.TimeSliceIncrement = *c.TimeSliceIncrement
	}
	if c.BaseTimeSlice != nil {
		p.BaseTimeSlice = *c.BaseTimeSlice
	}
	if c.NQueues != nil {
		p.NQueues = *c.NQueues
	}
	if c.MinExp != nil {
		p.MinExp = *c.MinExp
	}
	if c.ExpIncrement != nil {
		p.ExpIncrement = *c.ExpIncrement
	}
	return p, nil
}

// Build constructs the configured scheduler.
func (c SchedulerConfig) Build() (Scheduler, error) {
	p, err := c.Params()
	if err != nil {
		return nil, err
	}
	return NewScheduler(c.Name, p)
}

// Validate checks generator parameters. File-backed workloads skip the generator checks.
func (w WorkloadSpec) Validate() error {
	if w.ArrivalsFile != "" {
		return nil
	}
	if w.NProcesses <= 0 {
		return fmt.Errorf("%w: n_processes must be positive, got %d", ErrInvalidConfiguration, w.NProcesses)
	}
	if w.LensMean <= 0 || math.IsNaN(w.LensMean) {
		return fmt.Errorf("%w: lens_mean must be positive, got %v", ErrInvalidConfiguration, w.LensMean)
	}
	if w.LensStd < 0 || math.IsNaN(w.LensStd) {
		return fmt.Errorf("%w: lens_std must be non-negative, got %v", ErrInvalidConfiguration, w.LensStd)
	}
	if w.Density <= 0 || math.IsNaN(w.Density) {
		return fmt.Errorf("%w: density must be positive, got %v", ErrInvalidConfiguration, w.Density)
	}
	return nil
}

// Validate checks a sweep range. An empty range means "not swept".
func (r SweepRange) Validate() error {
	switch len(r.Range) {
	case 0, 1:
		return nil
	case 2:
		if r.Groups < 1 {
			return fmt.Errorf("%w: groups must be at least 1, got %d", ErrInvalidConfiguration, r.Groups)
		}
		if r.Geometric && (r.Range[0] <= 0 || r.Range[1] <= 0) {
			return fmt.Errorf("%w: geometric range bounds must be positive, got %v", ErrInvalidConfiguration, r.Range)
		}
		return nil
	default:
		return fmt.Errorf("%w: range must have at most 2 values, got %d", ErrInvalidConfiguration, len(r.Range))
	}
}
