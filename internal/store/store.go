// Package store persists tracking runs as a metadata file plus a CSV series.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata summarizes one closed-loop tracking run.
type RunMetadata struct {
	ID        string             `json:"id"`
	Path      string             `json:"path"`
	Timestamp time.Time          `json:"timestamp"`
	TimeStep  float64            `json:"time_step"`
	Horizon   int                `json:"horizon"`
	Cycles    int                `json:"cycles"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Sample is one control cycle's worth of logged signals.
type Sample struct {
	T          float64
	X          float64
	Y          float64
	Heading    float64
	Velocity   float64
	RefX       float64
	RefY       float64
	RefHeading float64
	RefVel     float64
	Accel      float64
	Steer      float64
	CrossTrack float64
}

var csvHeader = []string{
	"time", "x", "y", "heading", "velocity",
	"ref_x", "ref_y", "ref_heading", "ref_velocity",
	"accel", "steer", "cross_track",
}

func (sm Sample) row() []string {
	vals := []float64{
		sm.T, sm.X, sm.Y, sm.Heading, sm.Velocity,
		sm.RefX, sm.RefY, sm.RefHeading, sm.RefVel,
		sm.Accel, sm.Steer, sm.CrossTrack,
	}
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return row
}

// Save writes a run directory containing metadata.json and samples.csv and
// returns the generated run ID.
func (s *Store) Save(meta RunMetadata, samples []Sample) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Path, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Cycles = len(samples)

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, sm := range samples {
		if err := w.Write(sm.row()); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples reads back the CSV series of a stored run.
func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(csvHeader) {
			continue
		}
		vals := make([]float64, len(csvHeader))
		ok := true
		for i := range vals {
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}
		samples = append(samples, Sample{
			T: vals[0], X: vals[1], Y: vals[2], Heading: vals[3], Velocity: vals[4],
			RefX: vals[5], RefY: vals[6], RefHeading: vals[7], RefVel: vals[8],
			Accel: vals[9], Steer: vals[10], CrossTrack: vals[11],
		})
	}
	return samples, nil
}
