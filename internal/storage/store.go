package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	mergesFile   = "merges.csv"
)

var (
	frameHeader = []string{"step", "time", "id", "kind", "mass", "radius", "x", "y", "z", "vx", "vy", "vz"}
	mergeHeader = []string{"step", "time", "absorber", "absorbed"}
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

// RunInfo describes how a run was configured.
type RunInfo struct {
	Name        string
	Solver      string
	Integrator  string
	Seed        uint64
	Dt          float64
	Duration    float64
	SampleEvery int
	G           float64
	Theta       float64
	Epsilon     float64
	Collisions  bool
	Bodies      int
}

type RunMetadata struct {
	ID            string             `json:"id" msgpack:"id"`
	Name          string             `json:"name" msgpack:"name"`
	Timestamp     time.Time          `json:"timestamp" msgpack:"timestamp"`
	Seed          uint64             `json:"seed" msgpack:"seed"`
	Dt            float64            `json:"dt" msgpack:"dt"`
	Duration      float64            `json:"duration" msgpack:"duration"`
	SampleEvery   int                `json:"sample_every" msgpack:"sample_every"`
	Solver        string             `json:"solver" msgpack:"solver"`
	Integrator    string             `json:"integrator" msgpack:"integrator"`
	G             float64            `json:"g" msgpack:"g"`
	Theta         float64            `json:"theta" msgpack:"theta"`
	Epsilon       float64            `json:"epsilon" msgpack:"epsilon"`
	Collisions    bool               `json:"collisions" msgpack:"collisions"`
	InitialBodies int                `json:"initial_bodies" msgpack:"initial_bodies"`
	FinalBodies   int                `json:"final_bodies" msgpack:"final_bodies"`
	Steps         int                `json:"steps" msgpack:"steps"`
	Frames        int                `json:"frames" msgpack:"frames"`
	Merges        int                `json:"merges" msgpack:"merges"`
	EnergyDrift   float64            `json:"energy_drift" msgpack:"energy_drift"`
	Metrics       map[string]float64 `json:"metrics" msgpack:"metrics"`
	Errors        []string           `json:"errors,omitempty" msgpack:"errors,omitempty"`
}

// NewRunID returns "<name>_<unix>_<8 hex chars>". The random suffix keeps
// runs started within the same second apart.
func NewRunID(name string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", name, now.Unix(), uuid.NewString()[:8])
}

func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	now := time.Now()
	runID := NewRunID(info.Name, now)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:            runID,
		Name:          info.Name,
		Timestamp:     now,
		Seed:          info.Seed,
		Dt:            info.Dt,
		Duration:      info.Duration,
		SampleEvery:   info.SampleEvery,
		Solver:        info.Solver,
		Integrator:    info.Integrator,
		G:             info.G,
		Theta:         info.Theta,
		Epsilon:       info.Epsilon,
		Collisions:    info.Collisions,
		InitialBodies: info.Bodies,
		FinalBodies:   result.FinalCount,
		Steps:         result.StepsTaken,
		Frames:        len(result.Frames),
		Merges:        len(result.Merges),
		EnergyDrift:   result.EnergyDrift,
		Metrics:       result.Metrics,
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, framesFile), frameHeader, frameRows(result.Frames)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, mergesFile), mergeHeader, mergeRows(result.Merges)); err != nil {
		return "", err
	}

	return runID, nil
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

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func frameRows(frames []sim.Frame) [][]string {
	var rows [][]string
	for _, fr := range frames {
		step := strconv.Itoa(fr.Step)
		t := formatFloat(fr.Time)
		for _, b := range fr.Bodies {
			rows = append(rows, []string{
				step, t,
				strconv.FormatUint(uint64(b.ID), 10),
				b.Kind.String(),
				formatFloat(b.Mass),
				formatFloat(b.Radius),
				formatFloat(b.Position[0]), formatFloat(b.Position[1]), formatFloat(b.Position[2]),
				formatFloat(b.Velocity[0]), formatFloat(b.Velocity[1]), formatFloat(b.Velocity[2]),
			})
		}
	}
	return rows
}

func mergeRows(merges []sim.MergeRecord) [][]string {
	rows := make([][]string, 0, len(merges))
	for _, m := range merges {
		rows = append(rows, []string{
			strconv.Itoa(m.Step),
			formatFloat(m.Time),
			strconv.FormatUint(uint64(m.Absorber), 10),
			strconv.FormatUint(uint64(m.Absorbed), 10),
		})
	}
	return rows
}

// List returns every saved run, oldest first. Directories without readable
// metadata are skipped.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) readCSV(runID, name string, width int) ([][]string, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = width

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", runID, name, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

// LoadFrames rebuilds the sampled frames of a run.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	records, err := s.readCSV(runID, framesFile, len(frameHeader))
	if err != nil {
		return nil, err
	}

	frames := make([]sim.Frame, 0)
	for i, rec := range records {
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("frames row %d: %w", i+1, err)
		}
		id, err := strconv.ParseUint(rec[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("frames row %d: %w", i+1, err)
		}
		nums, err := parseFloats(rec[1], rec[4], rec[5], rec[6], rec[7], rec[8], rec[9], rec[10], rec[11])
		if err != nil {
			return nil, fmt.Errorf("frames row %d: %w", i+1, err)
		}

		if len(frames) == 0 || frames[len(frames)-1].Step != step {
			frames = append(frames, sim.Frame{Step: step, Time: nums[0]})
		}
		fr := &frames[len(frames)-1]
		fr.Bodies = append(fr.Bodies, dynamo.Body{
			ID:       dynamo.BodyID(id),
			Kind:     dynamo.ParseKind(rec[3]),
			Mass:     nums[1],
			Radius:   nums[2],
			Position: mgl64.Vec3{nums[3], nums[4], nums[5]},
			Velocity: mgl64.Vec3{nums[6], nums[7], nums[8]},
		})
	}
	return frames, nil
}

func (s *Store) LoadMerges(runID string) ([]sim.MergeRecord, error) {
	records, err := s.readCSV(runID, mergesFile, len(mergeHeader))
	if err != nil {
		return nil, err
	}

	merges := make([]sim.MergeRecord, 0, len(records))
	for i, rec := range records {
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("merges row %d: %w", i+1, err)
		}
		t, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("merges row %d: %w", i+1, err)
		}
		absorber, err := strconv.ParseUint(rec[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("merges row %d: %w", i+1, err)
		}
		absorbed, err := strconv.ParseUint(rec[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("merges row %d: %w", i+1, err)
		}
		merges = append(merges, sim.MergeRecord{
			Step: step,
			Time: t,
			MergeEvent: dynamo.MergeEvent{
				Absorber: dynamo.BodyID(absorber),
				Absorbed: dynamo.BodyID(absorbed),
			},
		})
	}
	return merges, nil
}

func parseFloats(fields ...string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
