package stats

import (
	"encoding/json"
	"fmt"
	"io"

	"heurbench/internal/results"
)

const ReportSchemaVersion = 1

type AlgorithmMetrics struct {
	Algorithm string `json:"algorithm"`
	Metrics
}

type InstanceBest struct {
	Instance  string `json:"instance"`
	BestValue string `json:"best_value"`
	BestTime  string `json:"best_time"`
	// BestSum is the largest sum over seeds; SoleBest names the algorithm
	// whose best seed strictly beats all others, if any.
	BestSum  float64  `json:"best_sum"`
	Winners  []string `json:"winners"`
	SoleBest string   `json:"sole_best,omitempty"`
}

// ReportArtifact is the JSON dump of one analysis, for plotting and later
// comparison.
type ReportArtifact struct {
	SchemaVersion int                `json:"schema_version"`
	CreatedAtUTC  string             `json:"created_at_utc,omitempty"`
	ResultsPath   string             `json:"results_path,omitempty"`
	Scaling       float64            `json:"scaling"`
	Absolute      bool               `json:"absolute"`
	Seeds         []string           `json:"seeds"`
	Algorithms    []AlgorithmMetrics `json:"algorithms"`
	Instances     []InstanceBest     `json:"instances"`
}

func NewReportArtifact(ds *results.Dataset, r *Report) ReportArtifact {
	artifact := ReportArtifact{
		SchemaVersion: ReportSchemaVersion,
		Absolute:      r.Absolute,
		Seeds:         ds.Seeds.Names(),
		Algorithms:    make([]AlgorithmMetrics, 0, len(r.Metrics)),
		Instances:     make([]InstanceBest, 0, r.Derived.Instances),
	}
	for h, m := range r.Metrics {
		artifact.Algorithms = append(artifact.Algorithms, AlgorithmMetrics{
			Algorithm: ds.Algorithms.Name(h),
			Metrics:   m,
		})
	}
	d := r.Derived
	for i := 0; i < d.Instances; i++ {
		entry := InstanceBest{
			Instance:  ds.Instances.Name(i),
			BestValue: d.BestMax[i].Value.String(),
			BestTime:  d.BestMax[i].Time.String(),
			BestSum:   d.BestSum[i],
			Winners:   []string{},
		}
		for h := 0; h < d.Algorithms; h++ {
			if r.Satisfies(BA, i, h) {
				entry.Winners = append(entry.Winners, ds.Algorithms.Name(h))
			}
			if d.SoleBest(i, h) {
				entry.SoleBest = ds.Algorithms.Name(h)
			}
		}
		artifact.Instances = append(artifact.Instances, entry)
	}
	return artifact
}

// EncodeReport writes the artifact as indented JSON.
func EncodeReport(w io.Writer, artifact ReportArtifact) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(artifact)
}

func DecodeReport(r io.Reader) (ReportArtifact, error) {
	var artifact ReportArtifact
	if err := json.NewDecoder(r).Decode(&artifact); err != nil {
		return ReportArtifact{}, fmt.Errorf("decode report: %w", err)
	}
	if artifact.SchemaVersion != ReportSchemaVersion {
		return ReportArtifact{}, fmt.Errorf("unsupported report schema version: %d", artifact.SchemaVersion)
	}
	return artifact, nil
}
