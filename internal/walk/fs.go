package walk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/CZERTAINLY/parallel-lint/internal/model"
	"github.com/CZERTAINLY/parallel-lint/internal/parallel"
)

// Options filters the files found in directories.
type Options struct {
	// Extensions without a leading dot, files given explicitly are never filtered
	Extensions []string
	// Exclude lists directories to skip, either by a base name or by a path
	Exclude []string
	// Workers bounds how many paths are resolved at once, GOMAXPROCS if not set
	Workers int
}

// Entry is a regular file found by FS
type Entry struct {
	// Path is the file path prefixed with the name of the walked filesystem
	Path string
	Info fs.FileInfo
}

// Files resolves the command line paths to an ordered list of files. A
// regular file is taken as is (cleaned), a directory is walked recursively in lexical
// order. Anything else is a PathError and no files are returned.
// Paths are resolved concurrently, the result keeps the order of paths.
func Files(ctx context.Context, paths []string, opts Options) ([]string, error) {
	if len(paths) == 0 {
		return nil, model.ErrNoPaths
	}
	excluded := newExcluder(opts.Exclude)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	found, err := parallel.Ordered(ctx, workers, paths, func(ctx context.Context, path string) ([]string, error) {
		return resolve(ctx, path, opts.Extensions, excluded)
	})
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range found {
		files = append(files, f...)
	}
	slog.DebugContext(ctx, "files discovered", "paths", len(paths), "files", len(files))
	return files, nil
}

func resolve(ctx context.Context, path string, extensions []string, excluded excluder) ([]string, error) {
	info, err := os.Stat(path)
	switch {
	case err != nil && errors.Is(err, fs.ErrNotExist):
		return nil, &model.PathError{Path: path}
	case err != nil:
		return nil, &model.PathError{Path: path, Err: err}
	case info.Mode().IsRegular():
		// cleaned like the walked entries, so ./a.php and a.php are the same file
		return []string{filepath.Clean(path)}, nil
	case info.IsDir():
		return dir(ctx, path, extensions, excluded)
	default:
		return nil, &model.PathError{Path: path, Err: fmt.Errorf("not a regular file or directory: %s", info.Mode().Type())}
	}
}

func dir(ctx context.Context, path string, extensions []string, excluded excluder) ([]string, error) {
	root, err := os.OpenRoot(path)
	if err != nil {
		return nil, &model.PathError{Path: path, Err: err}
	}
	defer func() {
		_ = root.Close()
	}()

	var files []string
	for entry, err := range FS(ctx, root.FS(), path, excluded.skip) {
		if err != nil {
			return nil, &model.PathError{Path: entry.Path, Err: err}
		}
		if hasExtension(entry.Path, extensions) {
			files = append(files, entry.Path)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

// FS recursively walks the filesystem rooted at root and return an Entry for every regular file found.
// Or an error if file information retrieval fails.
// Each Entry's Path is prefixed with name of a filesystem. It does not follow symlinks.
// Directories for which skipDir returns true are not entered.
func FS(ctx context.Context, root fs.FS, name string, skipDir func(path string) bool) iter.Seq2[Entry, error] {
	if root == nil {
		panic("root is nil")
	}

	return func(yield func(Entry, error) bool) {
		fn := func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			var entry = Entry{
				Path: filepath.Join(name, filepath.FromSlash(path)),
			}
			if err != nil {
				if !yield(entry, err) {
					return fs.SkipAll
				}
				return nil
			}
			if d.IsDir() {
				if path != "." && skipDir != nil && skipDir(entry.Path) {
					slog.DebugContext(ctx, "directory excluded", "path", entry.Path)
					return fs.SkipDir
				}
				return nil
			}
			info, err := d.Info()
			if err != nil {
				if !yield(entry, err) {
					return fs.SkipAll
				}
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}
			entry.Info = info
			if !yield(entry, nil) {
				return fs.SkipAll
			}
			return nil
		}
		_ = fs.WalkDir(root, ".", fn)
	}
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	return slices.Contains(extensions, ext)
}

// excluder matches directories either by base name (vendor) or by a path
// (src/vendor), paths are compared in absolute form
type excluder struct {
	names map[string]struct{}
	paths map[string]struct{}
}

func newExcluder(exclude []string) excluder {
	e := excluder{
		names: make(map[string]struct{}),
		paths: make(map[string]struct{}),
	}
	for _, x := range exclude {
		x = strings.TrimRight(x, `/\`)
		if x == "" {
			continue
		}
		if !strings.ContainsAny(x, `/\`) {
			e.names[x] = struct{}{}
		}
		if abs, err := filepath.Abs(x); err == nil {
			e.paths[abs] = struct{}{}
		}
	}
	return e
}

func (e excluder) skip(path string) bool {
	if _, ok := e.names[filepath.Base(path)]; ok {
		return true
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	_, ok := e.paths[abs]
	return ok
}
