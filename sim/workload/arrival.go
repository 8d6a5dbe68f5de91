package workload

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/procsched/procsched/sim"
)

// ArrivalEntry is one process in an arrival file.
type ArrivalEntry struct {
	Arrival  int64  `yaml:"arrival"`
	CPU      int64  `yaml:"cpu"`
	Priority int    `yaml:"priority"`
	Name     string `yaml:"name"`
	User     bool   `yaml:"user"`
}

// arrivalFile is the YAML layout: a top-level "processes" list.
type arrivalFile struct {
	Processes []ArrivalEntry `yaml:"processes"`
}

// csvColumns is the header of a CSV arrival file. Only the first two are required.
var csvColumns = []string{"arrival", "cpu", "priority", "name", "user"}

// LoadArrivals reads an arrival file. The format follows the extension: .csv, or
// .yaml/.yml. Arrivals must be in ascending tick order.
func LoadArrivals(path string) ([]sim.Arrival, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading arrivals: %w", err)
	}
	var entries []ArrivalEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		entries, err = parseArrivalsCSV(bytes.NewReader(data))
	case ".yaml", ".yml":
		entries, err = parseArrivalsYAML(data)
	default:
		return nil, fmt.Errorf("%w: unsupported arrival file extension %q", sim.ErrInvalidConfiguration, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ToArrivals(entries)
}

// ToArrivals validates entries and converts them to driver arrivals.
func ToArrivals(entries []ArrivalEntry) ([]sim.Arrival, error) {
	arrivals := make([]sim.Arrival, len(entries))
	for i, e := range entries {
		if e.Arrival < 0 {
			return nil, fmt.Errorf("%w: entry %d has negative arrival %d", sim.ErrInvalidConfiguration, i, e.Arrival)
		}
		if e.CPU <= 0 {
			return nil, fmt.Errorf("%w: entry %d has cpu %d, must be positive", sim.ErrInvalidConfiguration, i, e.CPU)
		}
		if i > 0 && e.Arrival < entries[i-1].Arrival {
			return nil, fmt.Errorf("%w: entry %d at tick %d follows tick %d",
				sim.ErrOutOfOrderArrival, i, e.Arrival, entries[i-1].Arrival)
		}
		arrivals[i] = sim.Arrival{
			Tick: e.Arrival,
			Spec: sim.ProcessSpec{
				Name:           e.Name,
				CPUTime:        e.CPU,
				StaticPriority: e.Priority,
				IsUserTask:     e.User,
			},
		}
	}
	return arrivals, nil
}

func parseArrivalsYAML(data []byte) ([]ArrivalEntry, error) {
	var f arrivalFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return f.Processes, nil
}

func parseArrivalsCSV(r io.Reader) ([]ArrivalEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(header) < 2 || header[0] != csvColumns[0] || header[1] != csvColumns[1] {
		return nil, fmt.Errorf("%w: CSV header must start with %q,%q, got %v",
			sim.ErrInvalidConfiguration, csvColumns[0], csvColumns[1], header)
	}

	var entries []ArrivalEntry
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		e, err := parseArrivalRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseArrivalRow(row []string) (ArrivalEntry, error) {
	var e ArrivalEntry
	var err error
	if len(row) < 2 {
		return e, fmt.Errorf("%w: row has %d columns, need at least 2", sim.ErrInvalidConfiguration, len(row))
	}
	if e.Arrival, err = strconv.ParseInt(row[0], 10, 64); err != nil {
		return e, fmt.Errorf("%w: arrival %q: %v", sim.ErrInvalidConfiguration, row[0], err)
	}
	if e.CPU, err = strconv.ParseInt(row[1], 10, 64); err != nil {
		return e, fmt.Errorf("%w: cpu %q: %v", sim.ErrInvalidConfiguration, row[1], err)
	}
	if len(row) > 2 && row[2] != "" {
		if e.Priority, err = strconv.Atoi(row[2]); err != nil {
			return e, fmt.Errorf("%w: priority %q: %v", sim.ErrInvalidConfiguration, row[2], err)
		}
	}
	if len(row) > 3 {
		e.Name = row[3]
	}
	if len(row) > 4 && row[4] != "" {
		if e.User, err = strconv.ParseBool(row[4]); err != nil {
			return e, fmt.Errorf("%w: user %q: %v", sim.ErrInvalidConfiguration, row[4], err)
		}
	}
	return e, nil
}

// WriteArrivalsCSV writes arrivals in the CSV arrival-file format.
func WriteArrivalsCSV(w io.Writer, arrivals []sim.Arrival) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, a := range arrivals {
		row := []string{
			strconv.FormatInt(a.Tick, 10),
			strconv.FormatInt(a.Spec.CPUTime, 10),
			strconv.Itoa(a.Spec.StaticPriority),
			a.Spec.Name,
			strconv.FormatBool(a.Spec.IsUserTask),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteArrivalsYAML writes arrivals in the YAML arrival-file format.
func WriteArrivalsYAML(w io.Writer, arrivals []sim.Arrival) error {
	file := arrivalFile{Processes: make([]ArrivalEntry, len(arrivals))}
	for i, a := range arrivals {
		file.Processes[i] = ArrivalEntry{
			Arrival:  a.Tick,
			CPU:      a.Spec.CPUTime,
			Priority: a.Spec.StaticPriority,
			Name:     a.Spec.Name,
			User:     a.Spec.IsUserTask,
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encoding arrivals YAML: %w", err)
	}
	return enc.Close()
}
