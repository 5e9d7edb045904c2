// Package sources caches decoded source files by numeric compiler id and by
// file name, lazily reading source text from disk and computing the
// line-offset table used to turn a byte offset into a line number.
package sources

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source is one source file known to the profiler. Text is nil when the
// file is skipped or could not be read; such a source has no line table, so
// gas spent in its instructions is counted in the owning contract's
// synthetic bucket rather than in LineGas, and no per-line report is
// printed for it.
type Source struct {
	ID             int
	FileName       string
	Skip           bool
	Text           []byte
	LineOffsets    []int
	LineGas        map[int]int64
	LinesWithCalls map[int]struct{}
}

// HasLines reports whether this source has a usable line-offset table.
func (s *Source) HasLines() bool {
	return s.Text != nil && len(s.LineOffsets) > 0
}

// LineForOffset returns the index of the line containing byte offset off:
// the largest line whose starting offset is <= off, ties broken toward the
// lower (earlier) line.
func (s *Source) LineForOffset(off int) int {
	// sort.Search finds the first index where LineOffsets[i] > off; the
	// line we want is the one before that.
	i := sort.Search(len(s.LineOffsets), func(i int) bool {
		return s.LineOffsets[i] > off
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// Registry caches Source objects by numeric id and by file name; both
// lookup paths return the same cached pointer once a source has been seen
// by both keys.
type Registry struct {
	srcRoot    string
	skip       []string
	byID       map[int]*Source
	byFileName map[string]*Source
}

// NewRegistry creates an empty Registry. srcRoot is tried first when
// resolving a source file's on-disk location; skip is a list of substrings
// that mark a source as "known but not reported" when found in its file
// name.
func NewRegistry(srcRoot string, skip []string) *Registry {
	return &Registry{
		srcRoot:    srcRoot,
		skip:       skip,
		byID:       make(map[int]*Source),
		byFileName: make(map[string]*Source),
	}
}

// GetByFileName returns the cached Source for fileName, creating it (and
// attempting to read its text) on first use.
func (r *Registry) GetByFileName(fileName string) *Source {
	if s, ok := r.byFileName[fileName]; ok {
		return s
	}

	s := &Source{
		FileName:       fileName,
		LineGas:        make(map[int]int64),
		LinesWithCalls: make(map[int]struct{}),
	}
	for _, substr := range r.skip {
		if strings.Contains(fileName, substr) {
			s.Skip = true
			break
		}
	}

	if !s.Skip {
		if data, ok := r.readFile(fileName); ok {
			s.Text = data
			s.LineOffsets = lineOffsets(data)
		}
	}

	r.byFileName[fileName] = s
	return s
}

// GetByID returns the cached Source for the given compiler source id,
// resolving it via fileName (supplied by the caller, which already knows
// the id→fileName mapping from the compiler bundle) on first use. Once
// resolved, the Source is reachable by both id and file name.
func (r *Registry) GetByID(id int, fileName string) *Source {
	if s, ok := r.byID[id]; ok {
		return s
	}
	s := r.GetByFileName(fileName)
	s.ID = id
	r.byID[id] = s
	return s
}

// readFile tries srcRoot first, then falls back to treating fileName as
// resolvable relative to the current working directory (the host's
// module-style resolution for compiler bundles that embed relative paths).
func (r *Registry) readFile(fileName string) ([]byte, bool) {
	if r.srcRoot != "" {
		if data, err := os.ReadFile(filepath.Join(r.srcRoot, fileName)); err == nil {
			return data, true
		}
	}
	if data, err := os.ReadFile(fileName); err == nil {
		return data, true
	}
	return nil, false
}

// lineOffsets splits data on LF and returns the starting byte offset of
// each line: offset 0 for line 0, each subsequent offset is the previous
// offset plus the previous line's length plus one (for the newline).
func lineOffsets(data []byte) []int {
	offsets := []int{0}
	for i, b := range data {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}
