package selection

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PatternError reports a malformed glob pattern.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("selection: malformed glob pattern %q", e.Pattern)
}

// Unwrap exposes doublestar.ErrBadPattern to errors.Is.
func (e *PatternError) Unwrap() error { return doublestar.ErrBadPattern }

// ValidatePattern checks pattern without matching it. An empty pattern is
// valid; it simply matches nothing.
func ValidatePattern(pattern string) error {
	pattern, ok := normalizePattern(pattern)
	if !ok {
		return nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return &PatternError{Pattern: pattern}
	}
	return nil
}

// normalizePattern strips one leading separator. ok is false for patterns
// that cannot match anything.
func normalizePattern(pattern string) (string, bool) {
	pattern = strings.TrimPrefix(pattern, "/")
	return pattern, pattern != ""
}

type matcher struct {
	pattern string
	literal bool
}

// mustCompile validates pattern up front so a bad pattern fails on first use
// even when the selection is empty.
func mustCompile(pattern string) matcher {
	if !doublestar.ValidatePattern(pattern) {
		panic(&PatternError{Pattern: pattern})
	}
	return matcher{
		pattern: pattern,
		literal: !strings.ContainsAny(pattern, `*?[{\`),
	}
}

func (m matcher) match(path string) bool {
	if m.literal {
		return path == m.pattern
	}
	ok, err := doublestar.Match(m.pattern, path)
	if err != nil {
		panic(&PatternError{Pattern: m.pattern})
	}
	return ok
}
