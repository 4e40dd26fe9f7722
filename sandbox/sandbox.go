// Package sandbox confines caller-supplied filenames to a single base directory.
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/webfiles"
	"github.com/spf13/afero"
)

// Validator resolves filenames against a fixed, canonical base directory.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	base          string // canonical absolute base directory
	fs            afero.Fs
	allowSymlinks bool
}

type Option func(*Validator)

// WithSymlinks permits symlinked path components beneath the base directory
// as long as they resolve inside it. By default Resolve refuses every link.
func WithSymlinks(allow bool) Option {
	return func(v *Validator) { v.allowSymlinks = allow }
}

// NewValidator canonicalizes baseDir once. On the host filesystem symlinks in
// baseDir itself are resolved too, so a symlinked base compares correctly
// against the paths returned by Resolve.
func NewValidator(baseDir string, fsys afero.Fs, opts ...Option) (*Validator, error) {
	if baseDir == "" {
		return nil, errors.New("base directory is required")
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}
	if _, ok := fsys.(*afero.OsFs); ok {
		if real, err := filepath.EvalSymlinks(base); err == nil {
			base = real
		}
	}

	v := &Validator{base: filepath.Clean(base), fs: fsys}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// BaseDir returns the canonical base directory.
func (v *Validator) BaseDir() string {
	return v.base
}

// Resolve returns the canonical path for filename or an error wrapping
// [webfiles.ErrBadRequest] (empty filename) or [webfiles.ErrForbidden].
//
// The containment check is purely lexical and runs before any filesystem
// access, so a rejected name never reaches storage. Absolute filenames are not
// rebased onto the base directory; they are accepted only if already inside it.
func (v *Validator) Resolve(filename string) (string, error) {
	if filename == "" {
		return "", webfiles.ErrBadRequest
	}
	if strings.ContainsRune(filename, 0) {
		return "", fmt.Errorf("%w: NUL in filename", webfiles.ErrForbidden)
	}

	p := filename
	if !filepath.IsAbs(p) {
		p = filepath.Join(v.base, p)
	}
	p = filepath.Clean(p)

	if !v.contains(p) {
		return "", fmt.Errorf("%w: %q", webfiles.ErrForbidden, filename)
	}

	check := v.checkNoSymlink
	if v.allowSymlinks {
		check = v.checkResolved
	}
	if err := check(p); err != nil {
		return "", err
	}
	return p, nil
}

// contains reports whether p is a strict descendant of the base directory.
func (v *Validator) contains(p string) bool {
	if p == v.base {
		return false
	}
	prefix := v.base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

// checkNoSymlink walks from the base to p and rejects any existing component
// that is a symlink. Missing trailing components are fine (create).
func (v *Validator) checkNoSymlink(p string) error {
	lstater, ok := v.fs.(afero.Lstater)
	if !ok {
		return nil
	}

	rel, err := filepath.Rel(v.base, p)
	if err != nil {
		return fmt.Errorf("%w: %v", webfiles.ErrForbidden, err)
	}
	cur := v.base
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		fi, lstatCalled, err := lstater.LstatIfPossible(cur)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("%w: %v", webfiles.ErrIO, err)
		}
		if lstatCalled && fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: symlink %q", webfiles.ErrForbidden, cur)
		}
	}
	return nil
}

// checkResolved evaluates the symlinks along the longest existing prefix of p
// and rejects p if the result leaves the base. Links dangling anywhere on the
// path are rejected since a later create would follow them.
func (v *Validator) checkResolved(p string) error {
	if _, ok := v.fs.(*afero.OsFs); !ok {
		return nil
	}

	existing, rest := p, ""
	for v.contains(existing) {
		real, err := filepath.EvalSymlinks(existing)
		if err == nil {
			if !v.contains(filepath.Join(real, rest)) {
				return fmt.Errorf("%w: %q resolves outside base directory", webfiles.ErrForbidden, p)
			}
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", webfiles.ErrIO, err)
		}
		if _, lerr := os.Lstat(existing); lerr == nil {
			return fmt.Errorf("%w: dangling symlink %q", webfiles.ErrForbidden, existing)
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = filepath.Dir(existing)
	}
	// Only the base itself is left, which exists and is canonical.
	return nil
}
