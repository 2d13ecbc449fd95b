package state

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ipsix/logagg/internal/scanner"
)

var (
	// ErrFrozen is returned by Merge once Wait has released the barrier.
	ErrFrozen = errors.New("aggregate is frozen")

	// ErrUnexpectedMerge is returned when more results are merged than were
	// announced with Expect.
	ErrUnexpectedMerge = errors.New("merge without matching Expect")
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Chunk holds the retained lines of one file.
type Chunk struct {
	Path  string   `json:"path"`
	Index int      `json:"index"`
	Lines []string `json:"lines"`
}

type FileOutcome struct {
	Path   string `json:"path"`
	Index  int    `json:"index"`
	Status Status `json:"status"`
	Lines  int    `json:"lines"`
	Error  string `json:"error,omitempty"`
}

// Snapshot is the frozen aggregate, readable once every contributor merged.
type Snapshot struct {
	Counts     map[scanner.Severity]int `json:"counts"`
	TotalLines int                      `json:"total_lines"`
	ErrorKeys  []scanner.ErrorCount     `json:"error_keys"`
	Content    []Chunk                  `json:"content,omitempty"`
	Files      []FileOutcome            `json:"files"`
}

func (s Snapshot) Count(sev scanner.Severity) int {
	return s.Counts[sev]
}

type errorEntry struct {
	key   string
	count int
	first int
}

// Aggregator merges per-file results. Each of the shared tables has its own
// lock so merges touching different tables never wait on each other.
type Aggregator struct {
	countsMu sync.Mutex
	counts   map[scanner.Severity]int

	keysMu sync.Mutex
	keys   map[string]*errorEntry

	contentMu sync.Mutex
	content   []Chunk

	filesMu sync.Mutex
	files   []FileOutcome

	lines     atomic.Int64
	remaining atomic.Int64
	pending   sync.WaitGroup
	frozen    atomic.Bool
	freeze    sync.Once
	snapshot  Snapshot
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		counts: make(map[scanner.Severity]int),
		keys:   make(map[string]*errorEntry),
	}
}

// Expect announces n contributors. It must be called before Wait.
func (a *Aggregator) Expect(n int) {
	if n <= 0 {
		return
	}
	a.remaining.Add(int64(n))
	a.pending.Add(n)
}

// Merge folds one file's result into the aggregate and marks that
// contributor as done. Failed results still count as a contribution.
func (a *Aggregator) Merge(p scanner.PartialResult) error {
	if a.frozen.Load() {
		return ErrFrozen
	}
	if a.remaining.Add(-1) < 0 {
		a.remaining.Add(1)
		return ErrUnexpectedMerge
	}
	defer a.pending.Done()

	a.mergeCounts(p)
	a.mergeKeys(p)
	a.mergeContent(p)
	a.recordOutcome(p)
	a.lines.Add(int64(p.Lines))
	return nil
}

func (a *Aggregator) mergeCounts(p scanner.PartialResult) {
	if len(p.Counts) == 0 {
		return
	}
	a.countsMu.Lock()
	defer a.countsMu.Unlock()
	for sev, n := range p.Counts {
		a.counts[sev] += n
	}
}

// mergeKeys keeps the spelling from the lowest input index so the result
// does not depend on which file finished first.
func (a *Aggregator) mergeKeys(p scanner.PartialResult) {
	if len(p.ErrorKeys) == 0 {
		return
	}
	a.keysMu.Lock()
	defer a.keysMu.Unlock()
	for fold, ec := range p.ErrorKeys {
		entry, ok := a.keys[fold]
		if !ok {
			a.keys[fold] = &errorEntry{key: ec.Key, count: ec.Count, first: p.Index}
			continue
		}
		entry.count += ec.Count
		if p.Index < entry.first {
			entry.key = ec.Key
			entry.first = p.Index
		}
	}
}

func (a *Aggregator) mergeContent(p scanner.PartialResult) {
	if len(p.Retained) == 0 {
		return
	}
	a.contentMu.Lock()
	defer a.contentMu.Unlock()
	a.content = append(a.content, Chunk{Path: p.Path, Index: p.Index, Lines: p.Retained})
}

func (a *Aggregator) recordOutcome(p scanner.PartialResult) {
	outcome := FileOutcome{
		Path:   p.Path,
		Index:  p.Index,
		Status: StatusSuccess,
		Lines:  p.Lines,
	}
	if p.Err != nil {
		outcome.Status = StatusFailed
		outcome.Error = p.Err.Error()
	}
	a.filesMu.Lock()
	defer a.filesMu.Unlock()
	a.files = append(a.files, outcome)
}

// Wait blocks until every announced contributor has merged, then freezes
// the aggregate and returns it. Later calls return the same snapshot.
func (a *Aggregator) Wait() Snapshot {
	a.pending.Wait()
	a.freeze.Do(func() {
		a.frozen.Store(true)
		a.snapshot = a.build()
	})
	return a.snapshot
}

func (a *Aggregator) build() Snapshot {
	snap := Snapshot{
		Counts:     make(map[scanner.Severity]int, len(scanner.Severities)),
		TotalLines: int(a.lines.Load()),
	}

	a.countsMu.Lock()
	for _, sev := range scanner.Severities {
		snap.Counts[sev] = a.counts[sev]
	}
	a.countsMu.Unlock()

	a.keysMu.Lock()
	folds := make([]string, 0, len(a.keys))
	for fold := range a.keys {
		folds = append(folds, fold)
	}
	sort.Strings(folds)
	snap.ErrorKeys = make([]scanner.ErrorCount, 0, len(folds))
	for _, fold := range folds {
		entry := a.keys[fold]
		snap.ErrorKeys = append(snap.ErrorKeys, scanner.ErrorCount{Key: entry.key, Count: entry.count})
	}
	a.keysMu.Unlock()

	a.contentMu.Lock()
	snap.Content = append([]Chunk(nil), a.content...)
	a.contentMu.Unlock()

	a.filesMu.Lock()
	snap.Files = append([]FileOutcome(nil), a.files...)
	a.filesMu.Unlock()
	sort.SliceStable(snap.Files, func(i, j int) bool {
		return snap.Files[i].Index < snap.Files[j].Index
	})

	return snap
}
