package report

import (
	"path/filepath"
	"sort"

	"github.com/ipsix/logagg/internal/scanner"
	"github.com/ipsix/logagg/internal/state"
)

const DefaultTopN = 5

type Options struct {
	TopN         int
	PrintContent bool
}

type SeverityCount struct {
	Severity scanner.Severity `json:"severity"`
	Label    string           `json:"label"`
	Count    int              `json:"count"`
}

// Report is the read-only view rendered after every scan has joined.
type Report struct {
	TotalEntries int                  `json:"total_entries"`
	Severities   []SeverityCount      `json:"severities"`
	TopErrors    []scanner.ErrorCount `json:"top_errors"`
	Content      []string             `json:"content,omitempty"`
	Files        []string             `json:"files_processed"`
}

// Build derives the report from a frozen snapshot. inputs is the list of
// paths as the user gave them; its order is kept for the files listing.
func Build(snap state.Snapshot, inputs []string, opts Options) Report {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}

	r := Report{
		TotalEntries: snap.TotalLines,
		Severities:   make([]SeverityCount, 0, len(scanner.Severities)),
		TopErrors:    TopErrors(snap.ErrorKeys, opts.TopN),
		Files:        make([]string, 0, len(inputs)),
	}
	for _, sev := range scanner.Severities {
		r.Severities = append(r.Severities, SeverityCount{
			Severity: sev,
			Label:    sev.Label(),
			Count:    snap.Count(sev),
		})
	}
	if opts.PrintContent {
		for _, chunk := range snap.Content {
			r.Content = append(r.Content, chunk.Lines...)
		}
	}
	for _, in := range inputs {
		r.Files = append(r.Files, filepath.Base(in))
	}
	return r
}

// TopErrors ranks keys by descending count. Equal counts are ordered by the
// case-folded key and then the key itself, so the ranking is reproducible.
func TopErrors(keys []scanner.ErrorCount, n int) []scanner.ErrorCount {
	ranked := append([]scanner.ErrorCount(nil), keys...)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		fa, fb := scanner.FoldKey(a.Key), scanner.FoldKey(b.Key)
		if fa != fb {
			return fa < fb
		}
		return a.Key < b.Key
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
