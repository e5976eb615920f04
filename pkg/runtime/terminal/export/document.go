package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/de-tools/governance-atlas/pkg/adapters"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"gopkg.in/yaml.v3"
)

type Document struct {
	RunID                string          `yaml:"run_id"`
	StartedAt            time.Time       `yaml:"started_at"`
	Mode                 string          `yaml:"mode"`
	MinViolations        int             `yaml:"min_violations"`
	TotalViolatingAssets int             `yaml:"total_violating_assets"`
	Incomplete           bool            `yaml:"incomplete"`
	Owners               []OwnerDocument `yaml:"owners"`
	Failures             []string        `yaml:"failures,omitempty"`
}

type OwnerDocument struct {
	Owner          string          `yaml:"owner"`
	Violations     int             `yaml:"violations"`
	Types          []string        `yaml:"types"`
	ViolationTypes map[string]int  `yaml:"violation_types"`
	Assets         []AssetDocument `yaml:"assets"`
}

type AssetDocument struct {
	Label string `yaml:"label"`
	ARN   string `yaml:"arn,omitempty"`
}

func NewDocument(result domain.RunResult) Document {
	doc := Document{
		RunID:                result.RunID,
		StartedAt:            result.StartedAt,
		Mode:                 result.Mode.String(),
		MinViolations:        result.MinViolations,
		TotalViolatingAssets: result.Diagnostics.TotalViolatingAssets,
		Incomplete:           result.Diagnostics.Incomplete,
		Owners:               make([]OwnerDocument, 0, len(result.Owners)),
	}
	for _, o := range result.Owners {
		od := OwnerDocument{
			Owner:          o.Owner,
			Violations:     o.Violations,
			Types:          o.Types,
			ViolationTypes: o.ViolationTypeCounts,
			Assets:         make([]AssetDocument, 0, len(o.Assets)),
		}
		for _, a := range o.Assets {
			od.Assets = append(od.Assets, AssetDocument{Label: a.Label, ARN: a.ARN})
		}
		doc.Owners = append(doc.Owners, od)
	}
	for _, f := range result.Diagnostics.Failures {
		doc.Failures = append(doc.Failures, fmt.Sprintf("%s %s: %s", f.Scope, f.Target, f.Reason))
	}
	return doc
}

// WriteYAML writes the run as a YAML document.
func WriteYAML(w io.Writer, result domain.RunResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(result)); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteJSON writes the run in the same shape the HTTP API returns.
func WriteJSON(w io.Writer, result domain.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(adapters.MapRunResultDomainToApi(result)); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}
