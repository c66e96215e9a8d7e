package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/wavesim/internal/field"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "mics.csv"
)

var ErrMalformedTrace = errors.New("storage: malformed trace")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Size       int                `json:"size"`
	Workers    int                `json:"workers"`
	Dt         float64            `json:"dt"`
	Dx         float64            `json:"dx"`
	Medium     field.Params       `json:"medium"`
	Ticks      int                `json:"ticks"`
	Steps      int                `json:"steps"`
	SampleRate int                `json:"sample_rate"`
	LeftMic    [2]int             `json:"left_mic"`
	RightMic   [2]int             `json:"right_mic"`
	Outcome    string             `json:"outcome"`
	Elapsed    float64            `json:"elapsed_seconds"`
	Audio      string             `json:"audio,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Trace is the microphone recording of a run, one row per tick. Samples
// are 16-bit PCM values. With a positive Limit only the newest Limit rows
// are kept; memory stays below twice that between calls to Trim.
type Trace struct {
	Times []float64
	Left  []float64
	Right []float64
	Limit int
}

func (t *Trace) Len() int { return len(t.Times) }

func (t *Trace) Append(time float64, left, right int16) {
	if t.Limit > 0 && len(t.Times) >= 2*t.Limit {
		t.Trim()
	}
	t.Times = append(t.Times, time)
	t.Left = append(t.Left, float64(left))
	t.Right = append(t.Right, float64(right))
}

// Trim drops all but the newest Limit rows.
func (t *Trace) Trim() {
	drop := len(t.Times) - t.Limit
	if t.Limit <= 0 || drop <= 0 {
		return
	}
	t.Times = append(t.Times[:0], t.Times[drop:]...)
	t.Left = append(t.Left[:0], t.Left[drop:]...)
	t.Right = append(t.Right[:0], t.Right[drop:]...)
}

// Save writes a new run directory and returns its ID. ID and Timestamp are
// filled in when empty.
func (s *Store) Save(meta RunMetadata, trace *Trace) (string, error) {
	if meta.ID == "" {
		name := meta.Name
		if name == "" {
			name = "wave"
		}
		meta.ID = fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := s.Dir(meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"time", "left", "right"}); err != nil {
		return "", err
	}
	if trace != nil {
		for i := range trace.Times {
			row := []string{
				strconv.FormatFloat(trace.Times[i], 'f', 6, 64),
				strconv.FormatFloat(trace.Left[i], 'f', 0, 64),
				strconv.FormatFloat(trace.Right[i], 'f', 0, 64),
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns every readable run, oldest first.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadTrace(runID string) (*Trace, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), traceFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 3

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTrace, err)
	}

	trace := &Trace{}
	for i := 1; i < len(records); i++ {
		var row [3]float64
		for j, cell := range records[i] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTrace, i+1, err)
			}
			row[j] = v
		}
		trace.Times = append(trace.Times, row[0])
		trace.Left = append(trace.Left, row[1])
		trace.Right = append(trace.Right, row[2])
	}

	return trace, nil
}
