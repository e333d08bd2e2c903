package util

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// walkBatchSize is the number of directory entries read per ReadDir call.
// Memory held by a Walker is bounded by depth * walkBatchSize entries.
const walkBatchSize = 64

// frame is one open directory listing cursor.
type frame struct {
	path    string
	dir     *os.File
	entries []fs.DirEntry
}

func openFrame(path string) (*frame, error) {
	dir, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open directory %s: %w", ErrFileSystem, path, err)
	}
	return &frame{path: path, dir: dir}, nil
}

// next returns the next entry of the listing, io.EOF once it is exhausted.
func (f *frame) next() (fs.DirEntry, error) {
	if len(f.entries) == 0 {
		entries, err := f.dir.ReadDir(walkBatchSize)
		if len(entries) == 0 {
			if err == nil {
				err = io.EOF
			}
			return nil, err
		}
		f.entries = entries
	}
	e := f.entries[0]
	f.entries = f.entries[1:]
	return e, nil
}

// Walker lazily enumerates every regular file below a root directory.
//
// It keeps an explicit stack of open directory cursors instead of recursing:
// the top of the stack is always the most recently entered directory that
// still has entries. Files are returned in directory listing order, which is
// neither sorted nor stable across platforms. Directories, symlinks and other
// special files are never returned.
//
// A Walker is not safe for concurrent use.
type Walker struct {
	stack []*frame
}

// NewWalker opens root for enumeration. It fails if root cannot be listed.
func NewWalker(root string) (*Walker, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrFileSystem, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileSystem, root, ErrExpectedDirectory)
	}
	f, err := openFrame(root)
	if err != nil {
		return nil, err
	}
	return &Walker{stack: []*frame{f}}, nil
}

// Next returns the path of the next regular file, or io.EOF when the tree is
// exhausted.
//
// A failure to stat an entry or to open a subdirectory is returned as an
// error and the entry is dropped; calling Next again continues with its
// siblings. A failure while reading a listing abandons that directory.
func (w *Walker) Next() (string, error) {
	for len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]
		entry, err := top.next()
		if err != nil {
			w.pop()
			if err == io.EOF {
				continue
			}
			return "", fmt.Errorf("%w: read directory %s: %w", ErrFileSystem, top.path, err)
		}

		path := filepath.Join(top.path, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return "", fmt.Errorf("%w: stat %s: %w", ErrFileSystem, path, err)
		}
		switch {
		case info.IsDir():
			child, err := openFrame(path)
			if err != nil {
				return "", err
			}
			w.stack = append(w.stack, child)
		case info.Mode().IsRegular():
			return path, nil
		}
	}
	return "", io.EOF
}

// All returns an iterator over the remaining files. Each item is either a
// path or an error, never both. Breaking out of the loop closes the walker.
func (w *Walker) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer w.Close()
		for {
			path, err := w.Next()
			if err == io.EOF {
				return
			}
			if !yield(path, err) {
				return
			}
		}
	}
}

// Depth returns the number of directory cursors currently open.
func (w *Walker) Depth() int {
	return len(w.stack)
}

// Close releases every open directory cursor. It is safe to call more than
// once.
func (w *Walker) Close() error {
	var errs []error
	for len(w.stack) > 0 {
		if err := w.pop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *Walker) pop() error {
	top := w.stack[len(w.stack)-1]
	w.stack[len(w.stack)-1] = nil
	w.stack = w.stack[:len(w.stack)-1]
	return top.dir.Close()
}
