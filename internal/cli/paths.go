package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolvePaths prefixes relative inputs with baseDir and expands glob
// patterns such as logs/**/*.log. An input naming an existing path is never
// expanded, even if it contains glob characters. A pattern that matches
// nothing is kept as given so the scan reports it as missing.
func ResolvePaths(inputs []string, baseDir string) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		p := in
		if baseDir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		if !isPattern(p) || exists(p) {
			out = append(out, p)
			continue
		}

		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", in, err)
		}
		if len(matches) == 0 {
			out = append(out, p)
			continue
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

func isPattern(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
