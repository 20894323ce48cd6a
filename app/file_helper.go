package app

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// cSourceExts are the extensions picked up when collecting a directory
var cSourceExts = map[string]bool{".c": true, ".h": true}

// FileHelper provides file operation utilities
type FileHelper struct {
	respectGitignore bool
}

// NewFileHelper creates a FileHelper that honours .gitignore files
func NewFileHelper() *FileHelper {
	return &FileHelper{respectGitignore: true}
}

// SetRespectGitignore toggles .gitignore filtering during directory walks
func (h *FileHelper) SetRespectGitignore(respect bool) {
	h.respectGitignore = respect
}

// CollectCFiles collects C sources from paths. Include and exclude
// patterns are doublestar globs matched against the slash-separated path
// relative to the directory being walked. Files named explicitly only go
// through the exclude patterns.
func (h *FileHelper) CollectCFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if h.isCFile(root) && !matchesAny(excludePatterns, filepath.ToSlash(filepath.Clean(root))) {
				add(root)
			}
			continue
		}

		gitignore := h.loadGitignore(root)

		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == root {
				return nil
			}

			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if !recursive || isExcludedDir(rel, excludePatterns) ||
					(gitignore != nil && gitignore.MatchesPath(rel+"/")) {
					return filepath.SkipDir
				}
				return nil
			}

			if !h.isCFile(p) || matchesAny(excludePatterns, rel) {
				return nil
			}
			if gitignore != nil && gitignore.MatchesPath(rel) {
				return nil
			}
			if len(includePatterns) > 0 && !matchesAny(includePatterns, rel) {
				return nil
			}
			add(p)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// IsValidCFile checks if a file has a C source or header extension
func (h *FileHelper) IsValidCFile(path string) bool {
	return h.isCFile(path)
}

// FileExists checks if a file exists
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// ReadFile reads file content
func (h *FileHelper) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (h *FileHelper) isCFile(path string) bool {
	return cSourceExts[strings.ToLower(filepath.Ext(path))]
}

// loadGitignore compiles root/.gitignore; nil when absent or disabled
func (h *FileHelper) loadGitignore(root string) *ignore.GitIgnore {
	if !h.respectGitignore {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		// bare names such as "vendor" or "gen_*.c" match the last segment
		if !strings.Contains(pattern, "/") {
			if ok, err := doublestar.Match(pattern, path.Base(rel)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// isExcludedDir reports whether a pattern excludes the directory or
// everything under it
func isExcludedDir(rel string, patterns []string) bool {
	return matchesAny(patterns, rel) || matchesAny(patterns, rel+"/_")
}

// ResolveFilePaths resolves file paths, returning existing files directly
// or collecting files from directories
func ResolveFilePaths(
	fileHelper *FileHelper,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	allFiles := true
	for _, path := range paths {
		exists, err := fileHelper.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}

	if allFiles {
		return paths, nil
	}

	return fileHelper.CollectCFiles(paths, recursive, includePatterns, excludePatterns)
}
