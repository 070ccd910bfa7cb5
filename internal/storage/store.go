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

	"github.com/google/uuid"
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
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Particles  []string           `json:"particles"`
	Mode       string             `json:"mode"`
	Channel    string             `json:"channel,omitempty"`
	TanBeta    float64            `json:"tan_beta"`
	ScanMin    float64            `json:"ma_min"`
	ScanMax    float64            `json:"ma_max"`
	Frames     int                `json:"frames"`
	Bins       int                `json:"bins"`
	Shape      string             `json:"shape"`
	Sigma      string             `json:"sigma"`
	Luminosity float64            `json:"luminosity"`
	Sum        bool               `json:"sum"`
	LogScale   bool               `json:"log_scale"`
	Bound      float64            `json:"bound"`
	YMax       float64            `json:"y_max"`
	AxisMin    float64            `json:"axis_min"`
	AxisMax    float64            `json:"axis_max"`
	Output     string             `json:"output"`
	ElapsedMS  int64              `json:"elapsed_ms"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes meta and the recorded curves under a new run directory and
// returns the run ID. meta.ID and meta.Timestamp are filled in.
func (s *Store) Save(meta RunMetadata, rec *Recording) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now()
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if rec == nil || len(rec.Frames) == 0 {
		return meta.ID, nil
	}

	csvFile, err := os.Create(filepath.Join(runDir, "curves.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	header := append([]string{"frame", "m_a", "x"}, rec.Labels...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, f := range rec.Frames {
		for b, x := range f.X {
			row := []string{
				strconv.Itoa(f.Index),
				strconv.FormatFloat(f.ScanValue, 'g', -1, 64),
				strconv.FormatFloat(x, 'g', -1, 64),
			}
			for _, ys := range f.Y {
				row = append(row, strconv.FormatFloat(ys[b], 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	return meta.ID, w.Error()
}

// List returns every stored run, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
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

// LoadCurves reads the curves of a stored run back into a Recording.
func (s *Store) LoadCurves(runID string) (*Recording, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, "curves.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 || len(records[0]) < 3 {
		return nil, fmt.Errorf("run %s: malformed curves.csv", runID)
	}

	rec := &Recording{Labels: records[0][3:]}
	var cur *FrameCurves
	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: line %d: %w", runID, line+2, err)
			}
			vals[j] = v
		}

		index := int(vals[0])
		if cur == nil || cur.Index != index {
			rec.Frames = append(rec.Frames, FrameCurves{
				Index:     index,
				ScanValue: vals[1],
				Y:         make([][]float64, len(rec.Labels)),
			})
			cur = &rec.Frames[len(rec.Frames)-1]
		}
		cur.X = append(cur.X, vals[2])
		for k := range rec.Labels {
			cur.Y[k] = append(cur.Y[k], vals[3+k])
		}
	}
	return rec, nil
}
