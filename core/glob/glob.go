// Package glob expands shell glob patterns against a filesystem.
package glob

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Expand returns the paths in fsys matching pattern, sorted. Relative
// patterns are resolved against dir and the results are relative to dir, in
// the same form the pattern was written in (e.g. a leading "./" is kept).
//
// Files whose names start with "." are only matched by pattern segments that
// also start with a ".". An empty result is not an error, callers decide
// whether to keep the pattern literally.
func Expand(fsys afero.Fs, dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	abs := pattern
	if !filepath.IsAbs(pattern) {
		abs = filepath.Join(quoteDir(dir), pattern)
	}

	matches, err := afero.Glob(fsys, abs)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	patternSegments := splitPath(abs)

	var out []string
	for _, match := range matches {
		if matchesHidden(patternSegments, splitPath(match)) {
			continue
		}
		out = append(out, rewrite(dir, pattern, match))
	}
	sort.Strings(out)
	return out, nil
}

// matchesHidden reports whether a wildcard segment of the pattern matched a
// dot file.
func matchesHidden(patternSegments, pathSegments []string) bool {
	if len(patternSegments) != len(pathSegments) {
		return false
	}
	for i, seg := range patternSegments {
		if !HasMeta(seg) {
			continue
		}
		if strings.HasPrefix(pathSegments[i], ".") && !strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// rewrite converts an absolute match back into the shape of the pattern.
func rewrite(dir, pattern, match string) string {
	if filepath.IsAbs(pattern) {
		return match
	}
	rel, err := filepath.Rel(dir, match)
	if err != nil {
		return match
	}
	if prefix := "." + string(filepath.Separator); strings.HasPrefix(pattern, prefix) {
		return prefix + rel
	}
	return rel
}

// quoteDir escapes the directory so only the pattern can contain wildcards.
// Backslash is the separator on Windows so it can't escape there.
func quoteDir(dir string) string {
	if filepath.Separator == '\\' {
		return dir
	}
	return QuoteMeta(dir)
}

func splitPath(p string) []string {
	return strings.Split(filepath.ToSlash(filepath.Clean(p)), "/")
}

// HasMeta reports whether the pattern contains any unescaped glob characters.
func HasMeta(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '*', '?', '[':
			return true
		}
	}
	return false
}

// QuoteMeta escapes the glob characters in s so it only matches itself.
func QuoteMeta(s string) string {
	return metaEscaper.Replace(s)
}

var metaEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
