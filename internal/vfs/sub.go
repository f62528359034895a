package vfs

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/koustreak/timefs/internal/progress"
)

// Sub exposes a directory of another backend as a backend of its own.
// Every call is forwarded with the prefix prepended, so the parent's caches
// are shared.
type Sub struct {
	parent Backend
	prefix string
}

func NewSub(parent Backend, prefix string) *Sub {
	return &Sub{parent: parent, prefix: cleanPath(prefix)}
}

func (s *Sub) Parent() Backend {
	return s.parent
}

func (s *Sub) Prefix() string {
	return s.prefix
}

func (s *Sub) full(p string) string {
	return path.Join(s.prefix, cleanPath(p))
}

func (s *Sub) Root() string {
	if s.prefix == "/" {
		return s.parent.Root()
	}
	return strings.TrimSuffix(s.parent.Root(), "/") + s.prefix
}

func (s *Sub) Resolve(p string) *Node {
	return NewNode(s, p)
}

func (s *Sub) IsDirectory(ctx context.Context, p string) (bool, error) {
	return s.parent.IsDirectory(ctx, s.full(p))
}

func (s *Sub) ListDirectory(ctx context.Context, p string) ([]string, error) {
	return s.parent.ListDirectory(ctx, s.full(p))
}

func (s *Sub) ListDirectoryMatching(ctx context.Context, p string, re *regexp.Regexp) ([]string, error) {
	return s.parent.ListDirectoryMatching(ctx, s.full(p), re)
}

func (s *Sub) Stat(ctx context.Context, p string) (*FileInfo, error) {
	return s.parent.Stat(ctx, s.full(p))
}

func (s *Sub) GetFile(ctx context.Context, p string, mon progress.Monitor) (string, error) {
	return s.parent.GetFile(ctx, s.full(p), mon)
}
