package id

import (
	"fmt"
	"strconv"
	"strings"
)

// Sequence hands out monotonically increasing integer ids starting at 1.
// The zero value is ready to use.
type Sequence struct {
	last int
}

// Next returns a fresh id, never equal to one previously returned or observed.
func (s *Sequence) Next() int {
	s.last++
	return s.last
}

// Observe records an id that already exists (e.g. loaded from disk) so that
// Next never collides with it.
func (s *Sequence) Observe(id int) {
	if id > s.last {
		s.last = id
	}
}

// Last returns the highest id handed out or observed.
func (s *Sequence) Last() int {
	return s.last
}

// FormatList renders ids as "1;2;3".
func FormatList(ids []int) string {
	parts := make([]string, len(ids))
	for i, v := range ids {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ";")
}

// ParseList parses "1;2;3" into ids. Empty input yields nil. Blank segments
// are skipped so that trailing separators survive hand edits.
func ParseList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q in list %q: %w", part, s, err)
		}
		ids = append(ids, v)
	}
	return ids, nil
}
