package scanner

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnorePattern represents a single gitignore-style pattern.
type IgnorePattern struct {
	pattern     string // Original pattern
	isNegation  bool   // True if pattern starts with !
	isDirectory bool   // True if pattern ends with /
	isAnchored  bool   // True if pattern is relative to the ignore file's directory
	glob        string // doublestar glob matched against slash-separated paths
}

// ParseIgnorePattern parses a gitignore-style pattern string.
func ParseIgnorePattern(pattern string) IgnorePattern {
	p := IgnorePattern{pattern: pattern}

	// Check for negation
	if strings.HasPrefix(pattern, "!") {
		p.isNegation = true
		pattern = pattern[1:]
	}

	// Check if directory pattern (ends with /)
	if strings.HasSuffix(pattern, "/") {
		p.isDirectory = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	// A leading or inner slash anchors the pattern
	if strings.HasPrefix(pattern, "/") {
		p.isAnchored = true
		pattern = pattern[1:]
	} else if strings.Contains(pattern, "/") {
		p.isAnchored = true
	}

	if p.isAnchored {
		p.glob = pattern
	} else {
		p.glob = "**/" + pattern
	}

	return p
}

// Match checks if the given path matches this ignore pattern.
// Negation patterns report a match as well; the caller decides what it means.
func (p IgnorePattern) Match(path string) bool {
	path = filepath.ToSlash(path)

	// Paths inside a matched directory match too
	if matchGlob(p.glob+"/**", path) {
		return true
	}
	if p.isDirectory {
		return false
	}
	return matchGlob(p.glob, path)
}

// IsNegation returns true if this pattern is a negation pattern.
func (p IgnorePattern) IsNegation() bool {
	return p.isNegation
}

// Under rebases the pattern onto dir, for patterns read from a nested ignore file.
func (p IgnorePattern) Under(dir string) IgnorePattern {
	dir = strings.Trim(filepath.ToSlash(dir), "/")
	if dir == "" || dir == "." {
		return p
	}
	p.glob = dir + "/" + p.glob
	return p
}

// String returns the pattern as written.
func (p IgnorePattern) String() string {
	return p.pattern
}

// matchGlob reports whether path matches glob. Malformed globs match nothing.
func matchGlob(glob, path string) bool {
	ok, err := doublestar.Match(glob, path)
	return err == nil && ok
}
