package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/factorytwin/internal/config"
	"github.com/san-kum/factorytwin/internal/optim"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	outputsFile  = "outputs.csv"
	configFile   = "config.yaml"
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

type RunMetadata struct {
	ID           string             `json:"id"`
	Scenario     string             `json:"scenario"`
	Timestamp    time.Time          `json:"timestamp"`
	Strategy     string             `json:"strategy"`
	Converged    bool               `json:"converged"`
	Reason       string             `json:"reason"`
	Iterations   int                `json:"iterations"`
	Passes       int                `json:"passes"`
	Objective    float64            `json:"objective"`
	MaxViolation float64            `json:"max_violation"`
	Design       map[string]float64 `json:"design"`
	Constraints  map[string]float64 `json:"constraints"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// Save writes the final result of a solve under a new run directory and
// returns its id. The iteration history is not persisted. The config is
// stored alongside so a run can be reproduced.
func (s *Store) Save(cfg *config.Config, res *optim.Result, metrics map[string]float64) (string, error) {
	name := cfg.Name
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Scenario:     cfg.Name,
		Timestamp:    time.Now().UTC(),
		Strategy:     res.Strategy,
		Converged:    res.Converged,
		Reason:       string(res.Reason),
		Iterations:   res.Iterations,
		Passes:       res.Passes,
		Objective:    res.Objective,
		MaxViolation: res.MaxViolation,
		Design:       res.Design,
		Constraints:  res.Constraints,
		Metrics:      finite(metrics),
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeOutputs(filepath.Join(runDir, outputsFile), res.Outputs); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns saved runs, newest first.
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(s.path(runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	data, err := os.ReadFile(s.path(runID, configFile))
	if err != nil {
		return nil, err
	}
	return config.Parse(data)
}

// LoadOutputs returns the namespace recorded at the final design.
func (s *Store) LoadOutputs(runID string) (map[string]float64, error) {
	records, err := readCSV(s.path(runID, outputsFile))
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(records))
	for _, rec := range records {
		if len(rec) != 2 {
			continue
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		out[rec[0]] = v
	}
	return out, nil
}

func (s *Store) path(runID, file string) string {
	return filepath.Join(s.baseDir, runID, file)
}

// finite drops NaN and infinite values, which JSON cannot encode.
func finite(in map[string]float64) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOutputs(path string, outputs map[string]float64) error {
	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := [][]string{{"key", "value"}}
	for _, k := range keys {
		rows = append(rows, []string{k, strconv.FormatFloat(outputs[k], 'g', -1, 64)})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

// readCSV returns the data rows of a CSV file, without its header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records[1:], nil
}
