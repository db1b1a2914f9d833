package storage

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"heurbench/internal/report"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Analysis is one archived comparison table together with the settings it
// was computed under.
type Analysis struct {
	VersionedRecord
	ID           uuid.UUID    `json:"id"`
	CreatedAtUTC time.Time    `json:"created_at_utc"`
	ResultsPath  string       `json:"results_path"`
	Scaling      float64      `json:"scaling"`
	Absolute     bool         `json:"absolute"`
	Instances    int          `json:"instances"`
	Algorithms   int          `json:"algorithms"`
	Seeds        int          `json:"seeds"`
	Rows         []report.Row `json:"rows"`
}

// NewAnalysis stamps a fresh ID, the current versions and the creation
// time.
func NewAnalysis(resultsPath string, scaling float64, absolute bool, rows []report.Row) Analysis {
	return Analysis{
		VersionedRecord: VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              uuid.New(),
		CreatedAtUTC:    time.Now().UTC(),
		ResultsPath:     resultsPath,
		Scaling:         scaling,
		Absolute:        absolute,
		Rows:            rows,
	}
}

func EncodeAnalysis(a Analysis) ([]byte, error) {
	return json.Marshal(a)
}

func DecodeAnalysis(data []byte) (Analysis, error) {
	var analysis Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return Analysis{}, err
	}
	if err := checkVersion(analysis.VersionedRecord); err != nil {
		return Analysis{}, err
	}
	return analysis, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

func cloneAnalysis(a Analysis) Analysis {
	a.Rows = append([]report.Row(nil), a.Rows...)
	return a
}
