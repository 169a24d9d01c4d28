package workspace

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultExcludes are directory names never worth indexing.
var defaultExcludes = []string{
	"**/.git/**", "**/node_modules/**", "**/__pycache__/**",
	"**/vendor/**", "**/.venv/**", "**/dist/**",
}

// walk enumerates files under root whose extension maps to a registered
// language, returning workspace-relative paths.
func (w *Workspace) walk() ([]string, error) {
	known := make(map[string]bool)
	for _, ext := range w.reg.Extensions() {
		known[ext] = true
	}

	var files []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if excluded(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded(rel) {
			return nil
		}
		if known[strings.ToLower(filepath.Ext(path))] {
			files = append(files, rel)
		}
		return nil
	})
	return files, err
}

func excluded(rel string) bool {
	for _, pattern := range defaultExcludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
