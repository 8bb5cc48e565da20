package fs

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// defaultIgnorePatterns skip host metadata that mounts leave on device storage.
var defaultIgnorePatterns = []string{".DS_Store", "._*", ".Trash-*/", "System Volume Information/"}

// ignoreRule is one compiled pattern. Rules are lower-cased because device
// storage is FAT and does not preserve case reliably.
type ignoreRule struct {
	glob     string
	anchored bool // contains '/', matched against the whole relative path
	dirOnly  bool // written with a trailing '/', matches directories only
}

func (r ignoreRule) match(rel, base string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	subject := base
	if r.anchored {
		subject = rel
	}
	ok, _ := path.Match(r.glob, subject)
	return ok
}

// IgnoreMatcher decides which device paths discovery leaves alone.
// A pattern without '/' matches a basename at any depth, a pattern with
// '/' matches the slash-separated path from the walk root, and a trailing
// '/' restricts a pattern to directories. Matching ignores case.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher compiles raw patterns after the defaults. Blank lines,
// '#' comments and malformed globs are dropped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, raw := range append(slices.Clone(defaultIgnorePatterns), rawPatterns...) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		rule := ignoreRule{dirOnly: strings.HasSuffix(raw, "/")}
		glob := strings.ToLower(strings.Trim(raw, "/"))
		if glob == "" {
			continue
		}
		if _, err := path.Match(glob, ""); err != nil {
			continue
		}
		rule.glob = glob
		rule.anchored = strings.Contains(glob, "/")
		m.rules = append(m.rules, rule)
	}
	return m
}

// Match reports whether relativePath, given with OS separators relative
// to the walk root, is ignored. isDir says whether it names a directory.
func (m *IgnoreMatcher) Match(relativePath string, isDir bool) bool {
	if relativePath == "" {
		return false
	}
	rel := strings.ToLower(filepath.ToSlash(relativePath))
	base := path.Base(rel)
	for _, r := range m.rules {
		if r.match(rel, base, isDir) {
			return true
		}
	}
	return false
}

// ParseIgnoreFile reads an ignore file with one pattern per line.
// A missing file yields no patterns.
func ParseIgnoreFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
