// Package output handles file naming and writing for exported work items.
// In --only mode, files are named after the work item key (e.g., ENG-42.md).
// In --all mode, files are grouped by project (e.g., ENG/ENG-42.md).
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// WriteOnly writes output for --only mode: <dir>/KEY.ext (e.g., ENG-42.md).
func (w *Writer) WriteOnly(key string, data []byte, ext string) (string, error) {
	return w.write(filepath.Join(w.OutputDir, sanitize(key)+ext), data)
}

// WriteAll writes output for --all mode, one directory per project:
// ENG-42 → <dir>/ENG/ENG-42.md
func (w *Writer) WriteAll(key string, data []byte, ext string) (string, error) {
	name := sanitize(key)
	return w.write(filepath.Join(w.OutputDir, project(name), name+ext), data)
}

// write creates the parent directory of path when needed and writes data.
func (w *Writer) write(path string, data []byte) (string, error) {
	if dir := filepath.Dir(path); dir != w.OutputDir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// project returns the key prefix before the issue number.
// Keys without a number are grouped under "_".
func project(key string) string {
	i := strings.LastIndex(key, "-")
	if i <= 0 {
		return "_"
	}
	return key[:i]
}

// sanitize replaces characters that are unsafe in filenames with underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range strings.TrimSpace(s) {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
