package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/pointpattern/internal/featureio"
	"github.com/sells-group/pointpattern/internal/nnindex"
)

// Output formats of the analyze command.
const (
	formatGeoJSON = "geojson"
	formatJSON    = "json"
	formatYAML    = "yaml"
	formatTable   = "table"
)

// writeOutcome renders an analysis in the requested format. geojson writes
// the study-area feature; the others write the statistics only.
func writeOutcome(w io.Writer, format string, out *analysisOutcome) error {
	switch format {
	case formatGeoJSON, "":
		return featureio.WriteGeoJSON(w, out.Feature)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(resultDocument(out)), "write json")
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resultDocument(out)); err != nil {
			return eris.Wrap(err, "write yaml")
		}
		return eris.Wrap(enc.Close(), "write yaml")
	case formatTable:
		formatResultTable(w, out.Result, out.RunID)
		return nil
	default:
		return eris.Errorf("unknown output format %q (want geojson, json, yaml or table)", format)
	}
}

type resultDoc struct {
	RunID          string          `json:"runId,omitempty" yaml:"runId,omitempty"`
	Pattern        nnindex.Pattern `json:"pattern" yaml:"pattern"`
	nnindex.Result `yaml:",inline"`
}

func resultDocument(out *analysisOutcome) resultDoc {
	return resultDoc{RunID: out.RunID, Pattern: out.Result.Pattern(), Result: *out.Result}
}

// formatResultTable writes the statistics as an aligned two-column table.
func formatResultTable(out io.Writer, r *nnindex.Result, runID string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if runID != "" {
		_, _ = fmt.Fprintf(w, "Run ID\t%s\n", runID)
	}
	_, _ = fmt.Fprintf(w, "Points\t%d\n", r.NumberOfPoints)
	_, _ = fmt.Fprintf(w, "Observed mean distance\t%.6g %s\n", r.ObservedMeanDistance, r.Units)
	_, _ = fmt.Fprintf(w, "Expected mean distance\t%.6g %s\n", r.ExpectedMeanDistance, r.Units)
	_, _ = fmt.Fprintf(w, "Nearest neighbour index\t%.4f\n", r.NearestNeighborIndex)
	_, _ = fmt.Fprintf(w, "Z-score\t%.4f\n", r.ZScore)
	_, _ = fmt.Fprintf(w, "Pattern\t%s\n", r.Pattern())
	_ = w.Flush()
}
