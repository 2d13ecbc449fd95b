package scanner

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Severities lists every severity in report order.
var Severities = []Severity{SeverityError, SeverityWarning, SeverityInfo}

// Label is the plural name used in the summary.
func (s Severity) Label() string {
	switch s {
	case SeverityError:
		return "Errors"
	case SeverityWarning:
		return "Warnings"
	case SeverityInfo:
		return "Info"
	default:
		return string(s)
	}
}

// ErrorCount is one entry of an error-message frequency table. Key keeps the
// case of the first occurrence seen.
type ErrorCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// PartialResult is what a single file contributes to the aggregate.
type PartialResult struct {
	Path  string
	Index int
	Lines int

	Counts map[Severity]int
	// ErrorKeys is keyed by FoldKey(key).
	ErrorKeys map[string]ErrorCount
	Retained  []string

	Err *FileError
}

func newPartial(path string) PartialResult {
	return PartialResult{
		Path:      path,
		Counts:    make(map[Severity]int),
		ErrorKeys: make(map[string]ErrorCount),
	}
}

// Failed returns an empty contribution carrying err.
func Failed(path string, err *FileError) PartialResult {
	p := newPartial(path)
	p.Err = err
	return p
}

func (p *PartialResult) addKey(key string) {
	fold := FoldKey(key)
	entry, ok := p.ErrorKeys[fold]
	if !ok {
		entry.Key = key
	}
	entry.Count++
	p.ErrorKeys[fold] = entry
}
