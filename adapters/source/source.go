// Package source loads DataLang documents from the filesystem.
//
// Arguments may be plain files, directories (searched recursively for
// *.dl files) or glob patterns with ** support.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/artpar/datalang/ports"
)

// Extension is the file extension of DataLang documents.
const Extension = ".dl"

// Loader reads DataLang sources. The zero value has no size limit.
type Loader struct {
	// MaxBytes rejects files larger than this many bytes. Zero disables the check.
	MaxBytes int64
}

// Load expands patterns and reads each matching file once, in path order.
func (l Loader) Load(ctx context.Context, patterns ...string) ([]ports.SourceFile, error) {
	paths, err := Resolve(patterns...)
	if err != nil {
		return nil, err
	}

	files := make([]ports.SourceFile, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := l.read(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (l Loader) read(path string) (ports.SourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ports.SourceFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if l.MaxBytes > 0 && info.Size() > l.MaxBytes {
		return ports.SourceFile{}, fmt.Errorf("%s: %d bytes exceeds limit of %d", path, info.Size(), l.MaxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ports.SourceFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ports.SourceFile{Path: path, Content: string(data), ModTime: info.ModTime()}, nil
}

// Resolve expands patterns into a sorted, de-duplicated list of file paths.
// A pattern that matches nothing is an error.
func Resolve(patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no input files")
	}

	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		paths, err := resolvePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func resolvePattern(pattern string) ([]string, error) {
	if !containsGlob(pattern) {
		info, err := os.Stat(pattern)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return []string{filepath.Clean(pattern)}, nil
		}
		pattern = filepath.Join(pattern, "**", "*"+Extension)
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}
	return matches, nil
}

// CommonDir returns the deepest directory holding every path, as an absolute
// path. It returns "" for no paths.
func CommonDir(paths ...string) string {
	sep := string(filepath.Separator)
	var common []string
	for i, p := range paths {
		parts := strings.Split(filepath.Dir(absOrSelf(p)), sep)
		if i == 0 {
			common = parts
			continue
		}
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}
	if len(common) == 0 {
		return ""
	}
	if dir := strings.Join(common, sep); dir != "" {
		return dir
	}
	return sep
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// IsSource reports whether path names a DataLang document.
func IsSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// OutputPath maps a source file to its generated counterpart inside outDir,
// preserving the path relative to baseDir. Sources outside baseDir, or any
// source when baseDir is empty, keep only their file name.
func OutputPath(src, baseDir, outDir, ext string) string {
	rel := filepath.Base(src)
	if baseDir != "" {
		if r, err := filepath.Rel(absOrSelf(baseDir), absOrSelf(src)); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ext
	return filepath.Join(outDir, rel)
}
