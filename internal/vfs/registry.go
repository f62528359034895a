package vfs

import (
	"context"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/koustreak/timefs/internal/errs"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/singleflight"
)

// Constructor creates the backend for a canonical root URI.
type Constructor func(ctx context.Context, root *url.URL, opts Options) (Backend, error)

// Registry hands out one backend per root URI. Concurrent first requests
// for the same root share a single construction, so a remote root is
// probed once. Failed constructions are not remembered, and a construction
// cancelled by another caller is repeated for the callers still waiting.
type Registry struct {
	opts         Options
	constructors *xsync.Map[string, Constructor]
	backends     *xsync.Map[string, Backend]
	flight       singleflight.Group
}

// NewRegistry returns a registry knowing the file, http, https, ftp and s3
// schemes.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		opts:         opts.withDefaults(),
		constructors: xsync.NewMap[string, Constructor](),
		backends:     xsync.NewMap[string, Backend](),
	}
	r.Register("file", func(_ context.Context, u *url.URL, _ Options) (Backend, error) {
		return NewLocal(filepath.FromSlash(cleanPath(u.Path)))
	})
	r.Register("http", func(ctx context.Context, u *url.URL, o Options) (Backend, error) {
		return NewHTTP(ctx, u, o)
	})
	r.Register("https", func(ctx context.Context, u *url.URL, o Options) (Backend, error) {
		return NewHTTP(ctx, u, o)
	})
	r.Register("ftp", func(ctx context.Context, u *url.URL, o Options) (Backend, error) {
		return NewFTP(ctx, u, o)
	})
	r.Register("s3", func(ctx context.Context, u *url.URL, o Options) (Backend, error) {
		return NewObjectStore(ctx, u, o)
	})
	return r
}

// Register adds or replaces the constructor for scheme.
func (r *Registry) Register(scheme string, c Constructor) {
	r.constructors.Store(strings.ToLower(scheme), c)
}

// Options returns the options backends are created with.
func (r *Registry) Options() Options {
	return r.opts
}

// Resolve returns the backend for root, creating it on first use.
func (r *Registry) Resolve(ctx context.Context, root string) (Backend, error) {
	u, key, err := Canonical(root)
	if err != nil {
		return nil, err
	}
	ctor, ok := r.constructors.Load(u.Scheme)
	if !ok {
		return nil, errs.Newf(errs.ErrKindUnsupportedProtocol, "no backend for scheme %q in %s", u.Scheme, root)
	}
	if b, ok := r.backends.Load(key); ok {
		return b, nil
	}

	for {
		v, err, _ := r.flight.Do(key, func() (interface{}, error) {
			if b, ok := r.backends.Load(key); ok {
				return b, nil
			}
			b, err := ctor(ctx, u, r.opts)
			if err != nil {
				return nil, err
			}
			r.backends.Store(key, b)
			return b, nil
		})
		if abandoned(ctx, nil, err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return v.(Backend), nil
	}
}

// Roots lists the canonical keys of the backends created so far.
func (r *Registry) Roots() []string {
	var keys []string
	r.backends.Range(func(k string, _ Backend) bool {
		keys = append(keys, k)
		return true
	})
	sort.Strings(keys)
	return keys
}

// Canonical parses a root URI and returns it with scheme and host lowered
// and the path cleaned, plus the key the registry stores it under. A bare
// path is taken as a local directory.
func Canonical(root string) (*url.URL, string, error) {
	if root == "" {
		return nil, "", errs.New(errs.ErrKindInvalidArgument, "empty root")
	}
	if !strings.Contains(root, "://") {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, "", errs.Wrap(errs.ErrKindInvalidArgument, "resolve "+root, err)
		}
		root = "file://" + filepath.ToSlash(abs)
	}
	u, err := url.Parse(root)
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrKindInvalidArgument, "parse "+root, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawPath, u.RawQuery, u.Fragment = "", "", ""
	if u.Path != "" {
		u.Path = path.Clean("/" + u.Path)
	}
	if u.Path == "/" {
		u.Path = ""
	}

	key := u.Scheme + "://"
	if u.User != nil {
		key += u.User.Username() + "@"
	}
	key += u.Host + u.Path
	return u, key, nil
}
