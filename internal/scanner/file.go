package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

type FileScanner struct {
	filter   Filter
	stat     func(string) (fs.FileInfo, error)
	readFile func(string) ([]byte, error)
}

type Option func(*FileScanner)

// WithFS swaps the filesystem calls, mostly for tests.
func WithFS(stat func(string) (fs.FileInfo, error), readFile func(string) ([]byte, error)) Option {
	return func(s *FileScanner) {
		if stat != nil {
			s.stat = stat
		}
		if readFile != nil {
			s.readFile = readFile
		}
	}
}

func New(filter Filter, opts ...Option) *FileScanner {
	s := &FileScanner{
		filter:   filter,
		stat:     os.Stat,
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan reads path fully and classifies every line. On failure the returned
// PartialResult is empty and carries the same *FileError that is returned.
func (s *FileScanner) Scan(_ context.Context, path string) (PartialResult, error) {
	info, err := s.stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			ferr := newFileError(path, KindNotFound, nil)
			return Failed(path, ferr), ferr
		}
		ferr := newFileError(path, KindReadError, cause(err))
		return Failed(path, ferr), ferr
	}
	if !info.Mode().IsRegular() {
		ferr := newFileError(path, KindNotAFile, fmt.Errorf("mode %s", info.Mode().Type()))
		return Failed(path, ferr), ferr
	}

	raw, err := s.readFile(path)
	if err != nil {
		ferr := newFileError(path, KindReadError, cause(err))
		return Failed(path, ferr), ferr
	}
	text, err := decodeText(raw)
	if err != nil {
		ferr := newFileError(path, KindReadError, fmt.Errorf("decode: %w", err))
		return Failed(path, ferr), ferr
	}
	return ScanText(path, text, s.filter), nil
}

// ScanText classifies and filters text that is already in memory.
func ScanText(path, text string, filter Filter) PartialResult {
	p := newPartial(path)
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), len(text)+64*1024)
	sc.Split(scanLines)
	for sc.Scan() {
		line := sc.Text()
		lower := strings.ToLower(line)
		p.Lines++

		c := classifyLower(line, lower)
		if c.Severity != "" {
			p.Counts[c.Severity]++
		}
		if c.Key != "" {
			p.addKey(c.Key)
		}
		if filter.Match(lower) {
			p.Retained = append(p.Retained, line)
		}
	}
	return p
}

// scanLines splits on "\n", "\r\n" or a lone "\r".
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		switch b {
		case '\n':
			return i + 1, data[:i], nil
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			// need one more byte to tell "\r" from "\r\n"
			return 0, nil, nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func cause(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return fmt.Errorf("%s: %w", pe.Op, pe.Err)
	}
	return err
}
