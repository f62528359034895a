// Package vfs unifies access to files stored locally, over HTTP(S), over FTP
// or in S3-compatible object storage behind one Backend interface.
//
// Remote backends mirror what they fetch into a local cache directory and
// keep every directory listing they fetch for the lifetime of the process.
// Backends are obtained from a Registry so that every root is probed and
// mirrored exactly once.
//
// Paths are slash-separated and rooted at the backend root ("/2020/a.dat").
// Directory entries returned by listings end in "/".
package vfs

import (
	"context"
	"net/http"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/koustreak/timefs/internal/filestore"
	"github.com/koustreak/timefs/internal/logger"
	"github.com/koustreak/timefs/internal/progress"
)

// Backend is the contract every file system root implements.
type Backend interface {
	// Root returns the URI the backend was created for.
	Root() string

	// Resolve returns a lazy handle for path. It never fails; existence is
	// checked when the node is queried.
	Resolve(path string) *Node

	// IsDirectory reports whether path names a directory.
	IsDirectory(ctx context.Context, path string) (bool, error)

	// ListDirectory returns the entry names of a directory; sub-directories
	// carry a trailing "/".
	ListDirectory(ctx context.Context, path string) ([]string, error)

	// ListDirectoryMatching is ListDirectory filtered to entries whose name,
	// without any trailing "/", fully matches re.
	ListDirectoryMatching(ctx context.Context, path string, re *regexp.Regexp) ([]string, error)

	// Stat returns metadata for path.
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// GetFile returns a local file holding the content of path, fetching it
	// first if needed. mon may be nil.
	GetFile(ctx context.Context, path string, mon progress.Monitor) (string, error)
}

// FileInfo describes a file or directory.
type FileInfo struct {
	// Name is the last path element, without a trailing "/".
	Name string

	// Size is the byte size, -1 if unknown.
	Size int64

	// ModTime is the last modification time; zero if unknown.
	ModTime time.Time

	IsDir bool
}

// Metrics receives backend events. Implementations must be safe for
// concurrent use. A nil Metrics disables collection.
type Metrics interface {
	ListingLookup(root string, hit bool)
	ProbeCompleted(root string, err error)
	DownloadCompleted(root string, bytes int64, elapsed time.Duration, err error)
}

type noopMetrics struct{}

func (noopMetrics) ListingLookup(string, bool)                             {}
func (noopMetrics) ProbeCompleted(string, error)                           {}
func (noopMetrics) DownloadCompleted(string, int64, time.Duration, error) {}

// Options configures the backends created by a Registry.
type Options struct {
	// CacheRoot is the directory holding fileSystemCache/.
	CacheRoot string

	// Component names the application within the cache directory.
	Component string

	// ChunkSize is the download buffer size in bytes.
	ChunkSize int

	// HTTPClient is used by HTTP backends; nil means a client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string

	// FTP credentials used when the URI carries none.
	FTPUser     string
	FTPPassword string

	// ObjectStore holds credentials for s3:// roots; Endpoint and
	// DefaultBucket are taken from the URI.
	ObjectStore filestore.Config

	Logger  *logger.Logger
	Metrics Metrics
}

const (
	DefaultChunkSize = 64 * 1024
	DefaultComponent = "timefs"
	DefaultTimeout   = 30 * time.Second
)

// DefaultOptions mirrors into the user cache directory.
func DefaultOptions() Options {
	return Options{
		CacheRoot: filepath.Join(userCacheDir(), "timefs"),
		Component: DefaultComponent,
		ChunkSize: DefaultChunkSize,
		Timeout:   DefaultTimeout,
		UserAgent: "timefs",
	}
}

// withDefaults fills zero fields.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CacheRoot == "" {
		o.CacheRoot = d.CacheRoot
	}
	if o.Component == "" {
		o.Component = d.Component
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = logger.Global()
	}
	if o.Metrics == nil {
		o.Metrics = noopMetrics{}
	}
	return o
}

// MirrorDir is the local directory mirroring the remote root u:
// <cacheRoot>/fileSystemCache/<component>/<scheme>/<host>/<remote-path>.
func (o Options) MirrorDir(scheme, host, remotePath string) string {
	return filepath.Join(o.CacheRoot, "fileSystemCache", o.Component, scheme, host,
		filepath.FromSlash(cleanPath(remotePath)))
}

// cleanPath roots and cleans p; the root is "/".
func cleanPath(p string) string {
	return path.Clean("/" + p)
}

// dirKey is the canonical listing-cache key of a directory: rooted, with a
// trailing "/".
func dirKey(p string) string {
	c := cleanPath(p)
	if c == "/" {
		return c
	}
	return c + "/"
}

func filterNames(names []string, re *regexp.Regexp) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if re.MatchString(strings.TrimSuffix(n, "/")) {
			out = append(out, n)
		}
	}
	return out
}
