package vfs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/progress"
)

// Local serves a directory tree on the local disk. GetFile returns the
// native path without copying.
type Local struct {
	dir string
}

// NewLocal returns a backend rooted at dir, which must be an existing
// directory.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "resolve "+dir, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, mapOSError(err, "stat root "+abs)
	}
	if !fi.IsDir() {
		return nil, errs.Newf(errs.ErrKindInvalidArgument, "root %s is not a directory", abs)
	}
	return &Local{dir: abs}, nil
}

// Root is the file:// URI of the directory.
func (l *Local) Root() string {
	return "file://" + filepath.ToSlash(l.dir)
}

// Dir is the native root directory.
func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) native(p string) string {
	return filepath.Join(l.dir, filepath.FromSlash(cleanPath(p)))
}

func (l *Local) Resolve(p string) *Node {
	return NewNode(l, p)
}

func (l *Local) IsDirectory(_ context.Context, p string) (bool, error) {
	fi, err := os.Stat(l.native(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, mapOSError(err, "stat "+p)
	}
	return fi.IsDir(), nil
}

func (l *Local) ListDirectory(_ context.Context, p string) ([]string, error) {
	entries, err := os.ReadDir(l.native(p))
	if err != nil {
		return nil, mapOSError(err, "list "+p)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return names, nil
}

func (l *Local) ListDirectoryMatching(ctx context.Context, p string, re *regexp.Regexp) ([]string, error) {
	names, err := l.ListDirectory(ctx, p)
	if err != nil {
		return nil, err
	}
	return filterNames(names, re), nil
}

func (l *Local) Stat(_ context.Context, p string) (*FileInfo, error) {
	native := l.native(p)
	fi, err := os.Stat(native)
	if err != nil {
		return nil, mapOSError(err, "stat "+p)
	}
	return &FileInfo{
		Name:    fi.Name(),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		IsDir:   fi.IsDir(),
	}, nil
}

func (l *Local) GetFile(_ context.Context, p string, mon progress.Monitor) (string, error) {
	mon = progress.OrNull(mon)
	defer mon.Finished()

	native := l.native(p)
	fi, err := os.Stat(native)
	if err != nil {
		return "", mapOSError(err, "get "+p)
	}
	if fi.IsDir() {
		return "", errs.Newf(errs.ErrKindInvalidArgument, "%s is a directory", p)
	}
	mon.SetTaskSize(fi.Size())
	mon.SetTaskProgress(fi.Size())
	return native, nil
}

// mapOSError translates a local file system error into a *errs.Error.
func mapOSError(err error, msg string) *errs.Error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	case errors.Is(err, fs.ErrPermission):
		return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
	default:
		return errs.Wrap(errs.ErrKindIOFailure, msg, err)
	}
}
