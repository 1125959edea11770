package utils

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher decides which collected paths are dropped. Patterns use doublestar
// syntax and are matched against slash-separated paths.
type Matcher struct {
	ignorePatterns []string
	caseSensitive  bool
}

func NewMatcher(ignores []string, caseSensitive bool) *Matcher {
	return &Matcher{
		ignorePatterns: ignores,
		caseSensitive:  caseSensitive,
	}
}

// Ignored reports whether path matches any ignore pattern, either as a whole
// or by its base name.
func (m *Matcher) Ignored(path string) bool {
	path = m.normalize(path)
	base := filepath.Base(path)

	for _, pattern := range m.ignorePatterns {
		pattern = m.normalize(pattern)
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (m *Matcher) normalize(s string) string {
	s = filepath.ToSlash(s)
	if !m.caseSensitive {
		s = strings.ToLower(s)
	}
	return s
}

// HasMeta reports whether pattern needs glob expansion.
func HasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// ParsePatternList parses a comma-separated pattern list
func ParsePatternList(patterns string) []string {
	if patterns == "" {
		return nil
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}

	return result
}
