// Package srcmap decodes the Solidity-style compressed source map format:
// a semicolon-separated sequence of "s:l:f:j" entries in which an absent
// field inherits the previous entry's value.
package srcmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is one fully-resolved source map element: an instruction's source
// byte offset (S), length (L), source id (F, -1 for compiler-generated),
// and jump tag (J).
type Entry struct {
	S int
	L int
	F int
	J string
}

// Decode parses a raw "s:l:f:j;s:l:f:j;..." source map into a sequence of
// fully-populated Entry values, one per instruction, applying per-field
// inheritance from the previous entry. A present-but-non-numeric s/l/f
// field is reported as an error — the only way this fold can fail.
func Decode(raw string) ([]Entry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	segments := strings.Split(raw, ";")
	entries := make([]Entry, 0, len(segments))

	var prev Entry
	for i, seg := range segments {
		fields := strings.SplitN(seg, ":", 4)

		cur := prev
		if i == 0 {
			cur = Entry{}
		}

		if len(fields) > 0 && fields[0] != "" {
			n, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("srcmap: entry %d: bad s field %q: %w", i, fields[0], err)
			}
			cur.S = n
		}
		if len(fields) > 1 && fields[1] != "" {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("srcmap: entry %d: bad l field %q: %w", i, fields[1], err)
			}
			cur.L = n
		}
		if len(fields) > 2 && fields[2] != "" {
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("srcmap: entry %d: bad f field %q: %w", i, fields[2], err)
			}
			cur.F = n
		}
		if len(fields) > 3 && fields[3] != "" {
			cur.J = fields[3]
		}

		entries = append(entries, cur)
		prev = cur
	}

	return entries, nil
}
