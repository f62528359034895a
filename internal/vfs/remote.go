package vfs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/logger"
	"github.com/koustreak/timefs/internal/progress"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/singleflight"
)

// transport is the protocol half of a Remote backend. Paths are rooted at
// the backend root; directory paths passed to list end in "/".
type transport interface {
	// probe checks that the root is reachable.
	probe(ctx context.Context) error

	// list returns the entries of dir, sub-directories suffixed with "/".
	list(ctx context.Context, dir string) ([]string, error)

	// open streams the content of p along with its size, -1 if unknown.
	open(ctx context.Context, p string) (io.ReadCloser, int64, error)

	stat(ctx context.Context, p string) (*FileInfo, error)
}

// removeFile is swapped out by tests to simulate a locked stale copy.
var removeFile = os.Remove

// Remote is a caching backend over a network transport. Listings are
// fetched once per directory and kept for the life of the backend; files
// are mirrored below a local cache directory and never re-fetched.
type Remote struct {
	root      string
	mirror    string
	t         transport
	chunkSize int

	listings   *xsync.Map[string, []string]
	listFlight singleflight.Group
	getFlight  singleflight.Group

	log     *logger.Logger
	metrics Metrics
}

// newRemote probes t and returns the backend, or a FileSystemOffline error
// when the probe fails.
func newRemote(ctx context.Context, u *url.URL, t transport, opts Options) (*Remote, error) {
	opts = opts.withDefaults()
	root := u.Scheme + "://" + u.Host + u.Path

	r := &Remote{
		root:      root,
		mirror:    opts.MirrorDir(u.Scheme, mirrorHost(u), u.Path),
		t:         t,
		chunkSize: opts.ChunkSize,
		listings:  xsync.NewMap[string, []string](),
		log:       opts.Logger.Component("vfs").With().Str("root", root).Logger(),
		metrics:   opts.Metrics,
	}

	err := t.probe(ctx)
	r.metrics.ProbeCompleted(root, err)
	if err != nil {
		r.log.WarnWith("remote file system is offline", err, nil)
		return nil, errs.Wrap(errs.ErrKindFileSystemOffline, "probe "+root, err)
	}

	r.log.DebugWith("remote file system online", map[string]interface{}{"mirror": r.mirror})
	return r, nil
}

// mirrorHost names the mirror directory of the server behind u: the
// lower-cased host name, suffixed with "_<port>" when a port is given and
// prefixed with "<user>@" for a login. Roots kept apart by the registry
// never share mirrored files.
func mirrorHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" {
		host += "_" + port
	}
	if u.User != nil && u.User.Username() != "" {
		host = u.User.Username() + "@" + host
	}
	return host
}

func (r *Remote) Root() string {
	return r.root
}

// MirrorDir is the local directory files are mirrored into.
func (r *Remote) MirrorDir() string {
	return r.mirror
}

func (r *Remote) localPath(p string) string {
	return filepath.Join(r.mirror, filepath.FromSlash(cleanPath(p)))
}

func (r *Remote) Resolve(p string) *Node {
	return NewNode(r, p)
}

// ListDirectory answers from the listing cache, fetching each directory at
// most once. Concurrent first requests for the same directory share one
// fetch. Failed fetches are not cached; a fetch cancelled by another caller
// is repeated.
func (r *Remote) ListDirectory(ctx context.Context, p string) ([]string, error) {
	key := dirKey(p)
	if names, ok := r.listings.Load(key); ok {
		r.metrics.ListingLookup(r.root, true)
		return append([]string(nil), names...), nil
	}
	r.metrics.ListingLookup(r.root, false)

	for {
		v, err, _ := r.listFlight.Do(key, func() (interface{}, error) {
			if names, ok := r.listings.Load(key); ok {
				return names, nil
			}
			names, err := r.t.list(ctx, key)
			if err != nil {
				return nil, err
			}
			r.listings.Store(key, names)
			r.log.DebugWith("listed directory", map[string]interface{}{"dir": key, "entries": len(names)})
			return names, nil
		})
		if abandoned(ctx, nil, err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return append([]string(nil), v.([]string)...), nil
	}
}

func (r *Remote) ListDirectoryMatching(ctx context.Context, p string, re *regexp.Regexp) ([]string, error) {
	names, err := r.ListDirectory(ctx, p)
	if err != nil {
		return nil, err
	}
	return filterNames(names, re), nil
}

// IsDirectory is true for the root, for paths whose mirror is a local
// directory, and for paths listed with a trailing "/" in their parent's
// listing.
func (r *Remote) IsDirectory(ctx context.Context, p string) (bool, error) {
	c := cleanPath(p)
	if c == "/" {
		return true, nil
	}
	if fi, err := os.Stat(r.localPath(c)); err == nil && fi.IsDir() {
		return true, nil
	}

	names, err := r.ListDirectory(ctx, path.Dir(c))
	if err != nil {
		if errs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	want := path.Base(c) + "/"
	for _, n := range names {
		if n == want {
			return true, nil
		}
	}
	return false, nil
}

// Stat prefers the local mirror and asks the transport otherwise.
func (r *Remote) Stat(ctx context.Context, p string) (*FileInfo, error) {
	c := cleanPath(p)
	isDir, err := r.IsDirectory(ctx, c)
	if err != nil {
		return nil, err
	}
	if isDir {
		return &FileInfo{Name: path.Base(c), Size: -1, IsDir: true}, nil
	}
	if fi, err := os.Stat(r.localPath(c)); err == nil {
		return &FileInfo{Name: fi.Name(), Size: fi.Size(), ModTime: fi.ModTime()}, nil
	}
	return r.t.stat(ctx, c)
}

// GetFile returns the mirrored copy of p, downloading it first when it is
// not yet mirrored. Concurrent requests for the same path share one
// download; only the first caller's monitor sees its progress. If the first
// caller cancels, the others start the download again under their own
// context and monitor.
func (r *Remote) GetFile(ctx context.Context, p string, mon progress.Monitor) (string, error) {
	mon = progress.OrNull(mon)
	defer mon.Finished()

	c := cleanPath(p)
	if c == "/" {
		return "", errs.New(errs.ErrKindInvalidArgument, "root is a directory")
	}
	local := r.localPath(c)
	if fi, err := os.Stat(local); err == nil && !fi.IsDir() {
		return local, nil
	}

	for {
		v, err, _ := r.getFlight.Do(c, func() (interface{}, error) {
			if fi, err := os.Stat(local); err == nil && !fi.IsDir() {
				return local, nil
			}
			return r.download(ctx, c, local, mon)
		})
		if abandoned(ctx, mon, err) {
			r.log.DebugWith("shared download cancelled by another caller, retrying", map[string]interface{}{"path": c})
			continue
		}
		if err != nil {
			return "", err
		}
		return v.(string), nil
	}
}

// abandoned reports whether err is a cancellation that does not belong to
// this caller: a merged call ran with another caller's context or monitor,
// and that caller gave up while ours are still live.
func abandoned(ctx context.Context, mon progress.Monitor, err error) bool {
	if err == nil || ctx.Err() != nil || (mon != nil && mon.IsCancelled()) {
		return false
	}
	return errs.HasKind(err, errs.ErrKindCancelled)
}

// download streams p into a uniquely named part file next to local and
// renames it into place once complete.
func (r *Remote) download(ctx context.Context, p, local string, mon progress.Monitor) (string, error) {
	began := time.Now()
	written, err := r.fetch(ctx, p, local, mon)
	r.metrics.DownloadCompleted(r.root, written, time.Since(began), err)
	if err != nil {
		r.log.WarnWith("download failed", err, map[string]interface{}{"path": p})
		return "", err
	}
	r.log.DebugWith("downloaded", map[string]interface{}{"path": p, "bytes": written})
	return local, nil
}

func (r *Remote) fetch(ctx context.Context, p, local string, mon progress.Monitor) (int64, error) {
	rc, size, err := r.t.open(ctx, p)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	mon.SetTaskSize(size)

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return 0, errs.Wrap(errs.ErrKindIOFailure, "create mirror directory", err)
	}
	part := local + ".part-" + uuid.NewString()
	f, err := os.Create(part)
	if err != nil {
		return 0, mapOSError(err, "create "+part)
	}

	written, err := r.copyChunks(ctx, f, rc, mon)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errs.Wrap(errs.ErrKindIOFailure, "close "+part, cerr)
	}
	if err == nil && size >= 0 && written != size {
		err = errs.Newf(errs.ErrKindIOFailure, "short transfer of %s: %d of %d bytes", p, written, size)
	}
	if err != nil {
		_ = os.Remove(part)
		return written, err
	}

	// Another process may have mirrored the file meanwhile. Replace it;
	// if it cannot be removed, keep it and drop ours.
	if _, err := os.Stat(local); err == nil {
		if err := removeFile(local); err != nil {
			r.log.WarnWith("keeping stale mirror copy", err, map[string]interface{}{"path": local})
			_ = os.Remove(part)
			return written, nil
		}
	}
	if err := os.Rename(part, local); err != nil {
		_ = os.Remove(part)
		return written, errs.Wrap(errs.ErrKindIOFailure, "rename "+part, err)
	}
	return written, nil
}

// copyChunks copies src to dst one chunk at a time, checking for
// cancellation before each chunk.
func (r *Remote) copyChunks(ctx context.Context, dst io.Writer, src io.Reader, mon progress.Monitor) (int64, error) {
	buf := make([]byte, r.chunkSize)
	var total int64
	for {
		if mon.IsCancelled() || ctx.Err() != nil {
			return total, errs.New(errs.ErrKindCancelled, "download cancelled")
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, errs.Wrap(errs.ErrKindIOFailure, "write mirror copy", werr)
			}
			total += int64(n)
			mon.SetTaskProgress(total)
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return total, errs.Wrap(errs.ErrKindCancelled, "download cancelled", rerr)
			}
			return total, errs.Wrap(errs.ErrKindIOFailure, "read remote content", rerr)
		}
	}
}

func (r *Remote) String() string {
	return fmt.Sprintf("Remote(%s -> %s)", r.root, r.mirror)
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}
