package scanner

import "strings"

// Filter keeps lines whose lowercase form contains a keyword. The keyword is
// used as given, surrounding spaces included. The zero value keeps everything.
type Filter struct {
	keyword string
}

func NewFilter(keyword string) Filter {
	return Filter{keyword: strings.ToLower(keyword)}
}

func (f Filter) Keyword() string { return f.keyword }

func (f Filter) Active() bool { return f.keyword != "" }

// Match reports whether a line, already lowercased, is retained.
func (f Filter) Match(lower string) bool {
	if f.keyword == "" {
		return true
	}
	return strings.Contains(lower, f.keyword)
}

func (f Filter) Apply(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if f.Match(strings.ToLower(line)) {
			out = append(out, line)
		}
	}
	return out
}
