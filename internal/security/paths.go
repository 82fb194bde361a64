// Package security guards the files the exporter writes: driver codes are
// sanitised before they become file names and every output path must stay
// inside the output directory.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxNameLen caps sanitised names.
const maxNameLen = 64

// SanitizeFilename turns an arbitrary identifier into a file name component.
// Anything other than ASCII letters, digits, dot, underscore or dash becomes a
// single underscore; leading and trailing dots and underscores are dropped.
// An empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	prevUnderscore := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			prevUnderscore = false
		case !prevUnderscore:
			b.WriteByte('_')
			prevUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// WithinDir reports an error when path, once cleaned, escapes dir. The check
// is lexical; both paths are resolved against the same working directory.
func WithinDir(path, dir string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return fmt.Errorf("path %s is outside %s: %w", path, dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s escapes %s", path, dir)
	}
	return nil
}
