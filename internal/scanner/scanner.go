// Package scanner finds the Python sources under a directory tree.
// It respects .slineignore files with gitignore-style patterns.
package scanner

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-directory ignore file.
const IgnoreFileName = ".slineignore"

// FileInfo is one source file found by a scan.
type FileInfo struct {
	Path     string // Slash-separated, relative to the scan root
	FullPath string
	Language string
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip names starting with "."
	DefaultExcludes []string // Directory names never entered
	IgnoreFileName  string
	Extensions      []string // Empty reports every file
}

// DefaultOptions returns the options sline scans with.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: IgnoreFileName,
		Extensions:     []string{".py"},
		DefaultExcludes: []string{
			".git",
			"__pycache__",
			".venv",
			"venv",
			"dist",
			"build",
			".hg",
			".svn",
			".tox",
			".nox",
			".mypy_cache",
			".pytest_cache",
			"site-packages",
		},
	}
}

// Scanner walks a tree and collects the files its options select.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan returns the selected files under root in lexical order. Symlinks are not
// followed. An ignore file applies to its own directory and everything below it.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	var (
		patterns []IgnorePattern
		files    []FileInfo
	)
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && (s.hidden(d.Name()) || s.excluded(d.Name()) || ignored(rel, patterns)) {
				return filepath.SkipDir
			}
			local, err := s.loadIgnorePatterns(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", filepath.Join(path, s.opts.IgnoreFileName), err)
			}
			for _, p := range local {
				if rel != "." {
					p = p.Under(rel)
				}
				patterns = append(patterns, p)
			}
			return nil
		}

		if !d.Type().IsRegular() || s.hidden(d.Name()) || !s.wantsExtension(path) || ignored(rel, patterns) {
			return nil
		}
		files = append(files, FileInfo{
			Path:     rel,
			FullPath: path,
			Language: DetectLanguage(filepath.Ext(path)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return files, nil
}

func (s *Scanner) hidden(name string) bool {
	return s.opts.SkipHidden && strings.HasPrefix(name, ".")
}

func (s *Scanner) excluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

func (s *Scanner) wantsExtension(path string) bool {
	if len(s.opts.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, want := range s.opts.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// loadIgnorePatterns reads the ignore file of dir; a missing file yields none.
func (s *Scanner) loadIgnorePatterns(dir string) ([]IgnorePattern, error) {
	if s.opts.IgnoreFileName == "" {
		return nil, nil
	}
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []IgnorePattern
	lines := bufio.NewScanner(file)
	for lines.Scan() {
		line := strings.TrimSpace(lines.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, ParseIgnorePattern(line))
	}
	return patterns, lines.Err()
}

// ignored applies patterns in order; a later negation re-includes a path.
func ignored(rel string, patterns []IgnorePattern) bool {
	result := false
	for _, p := range patterns {
		if p.Match(rel) {
			result = !p.IsNegation()
		}
	}
	return result
}

// Scan scans root with DefaultOptions.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}

// ScanWithOptions scans root with opts.
func ScanWithOptions(root string, opts Options) ([]FileInfo, error) {
	return New(opts).Scan(root)
}
