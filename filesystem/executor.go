// Package filesystem performs the four file operations against a storage
// backend. Callers pass paths already resolved by the sandbox package.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/brettbedarf/webfiles"
	"github.com/brettbedarf/webfiles/internal/util"
	"github.com/spf13/afero"
)

// DefaultFilePerm is applied to files created by Create.
const DefaultFilePerm os.FileMode = 0o644

// ErrIsDirectory is wrapped together with [webfiles.ErrIO] when an operation
// targets a directory.
var ErrIsDirectory = errors.New("is a directory")

// ErrNotDirectory is wrapped together with [webfiles.ErrIO] when a create
// target's parent is a regular file.
var ErrNotDirectory = errors.New("parent is not a directory")

// Executor runs each operation's I/O on its own goroutine. If the caller's
// context ends first the call returns ctx.Err() while the I/O runs to
// completion; a successful create or delete still publishes its event.
//
// There is no locking. Two requests on the same path may interleave, e.g. a
// delete landing between an update's existence check and its append.
type Executor struct {
	fs     afero.Fs
	pub    webfiles.Publisher
	perm   os.FileMode
	logger util.Logger
}

type Option func(*Executor)

// WithFilePerm overrides [DefaultFilePerm].
func WithFilePerm(perm os.FileMode) Option {
	return func(e *Executor) { e.perm = perm }
}

// NewExecutor returns an Executor over fsys. A nil pub discards events.
func NewExecutor(fsys afero.Fs, pub webfiles.Publisher, opts ...Option) *Executor {
	if pub == nil {
		pub = webfiles.NopPublisher{}
	}
	e := &Executor{
		fs:     fsys,
		pub:    pub,
		perm:   DefaultFilePerm,
		logger: util.GetLogger("Executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create writes content to path, creating the file or overwriting it. Parent
// directories are not created. filename is the caller-facing name carried in
// the created event.
func (e *Executor) Create(ctx context.Context, path, filename, content string) error {
	_, err := async(ctx, func() (struct{}, error) {
		// Some backends (MemMapFs) create missing parents on write, so the
		// parent is checked explicitly.
		if err := e.requireDir("create", filepath.Dir(path)); err != nil {
			return struct{}{}, err
		}
		if err := afero.WriteFile(e.fs, path, []byte(content), e.perm); err != nil {
			return struct{}{}, classify("create", path, err)
		}
		e.logger.Trace().Str("path", path).Int("bytes", len(content)).Msg("File written")
		e.pub.Publish(webfiles.NewEvent(webfiles.FileCreated, filename))
		return struct{}{}, nil
	})
	return err
}

// Read returns the whole file as text.
func (e *Executor) Read(ctx context.Context, path string) (string, error) {
	return async(ctx, func() (string, error) {
		data, err := afero.ReadFile(e.fs, path)
		if err != nil {
			return "", classify("read", path, err)
		}
		return string(data), nil
	})
}

// Update appends content to an existing file. Existence is checked first so a
// missing file reports [webfiles.ErrNotFound] instead of being created.
func (e *Executor) Update(ctx context.Context, path, content string) error {
	_, err := async(ctx, func() (struct{}, error) {
		if err := e.requireFile("update", path); err != nil {
			return struct{}{}, err
		}

		f, err := e.fs.OpenFile(path, os.O_WRONLY|os.O_APPEND, e.perm)
		if err != nil {
			return struct{}{}, classify("update", path, err)
		}
		_, werr := f.WriteString(content)
		cerr := f.Close()
		if err := errors.Join(werr, cerr); err != nil {
			return struct{}{}, classify("update", path, err)
		}
		e.logger.Trace().Str("path", path).Int("bytes", len(content)).Msg("File appended")
		return struct{}{}, nil
	})
	return err
}

// Delete removes a regular file. Directories are refused rather than removed.
func (e *Executor) Delete(ctx context.Context, path, filename string) error {
	_, err := async(ctx, func() (struct{}, error) {
		if err := e.requireFile("delete", path); err != nil {
			return struct{}{}, err
		}
		if err := e.fs.Remove(path); err != nil {
			return struct{}{}, classify("delete", path, err)
		}
		e.logger.Trace().Str("path", path).Msg("File removed")
		e.pub.Publish(webfiles.NewEvent(webfiles.FileDeleted, filename))
		return struct{}{}, nil
	})
	return err
}

// requireFile stats path and fails unless it is an existing non-directory.
func (e *Executor) requireFile(op, path string) error {
	fi, err := e.fs.Stat(path)
	if err != nil {
		return classify(op, path, err)
	}
	if fi.IsDir() {
		return classify(op, path, ErrIsDirectory)
	}
	return nil
}

// requireDir stats dir and fails unless it is an existing directory.
func (e *Executor) requireDir(op, dir string) error {
	fi, err := e.fs.Stat(dir)
	if err != nil {
		return classify(op, dir, err)
	}
	if !fi.IsDir() {
		return classify(op, dir, ErrNotDirectory)
	}
	return nil
}

// classify wraps err with the matching taxonomy sentinel while keeping the
// original cause for logging.
func classify(op, path string, err error) error {
	kind := webfiles.ErrIO
	if errors.Is(err, fs.ErrNotExist) {
		kind = webfiles.ErrNotFound
	}
	return fmt.Errorf("%s %s: %w: %w", op, path, kind, err)
}

// async runs fn on a new goroutine and waits for it or ctx, preferring the
// result when both are ready.
func async[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		select {
		case r := <-ch:
			return r.val, r.err
		default:
			var zero T
			return zero, ctx.Err()
		}
	}
}
