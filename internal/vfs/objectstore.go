package vfs

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/filestore"
	"github.com/koustreak/timefs/internal/filestore/minio"
)

// NewObjectStore returns a caching backend over an S3-compatible bucket.
// The root is s3://<endpoint>/<bucket>[/<prefix>]; "/" in object keys is
// treated as the directory separator.
func NewObjectStore(ctx context.Context, root *url.URL, opts Options) (*Remote, error) {
	opts = opts.withDefaults()
	u := *root
	u.RawQuery, u.Fragment, u.User = "", "", nil
	u.Path = strings.TrimSuffix(u.Path, "/")

	trimmed := strings.TrimPrefix(u.Path, "/")
	bucket, prefix, _ := strings.Cut(trimmed, "/")
	if bucket == "" {
		return nil, errs.Newf(errs.ErrKindInvalidArgument, "%s names no bucket", root)
	}

	cfg := opts.ObjectStore
	if cfg.Provider == "" {
		cfg.Provider = filestore.ProviderMinIO
	}
	cfg.Endpoint = u.Host
	cfg.DefaultBucket = bucket

	t := &objectTransport{cfg: cfg, bucket: bucket, prefix: prefix}
	return newRemote(ctx, &u, t, opts)
}

// objectTransport creates its store during the probe, which is when the
// driver checks the bucket.
type objectTransport struct {
	cfg    filestore.Config
	bucket string
	prefix string
	store  filestore.Store
}

func (o *objectTransport) probe(ctx context.Context) error {
	if o.store != nil {
		return o.store.Ping(ctx)
	}
	switch o.cfg.Provider {
	case filestore.ProviderMinIO:
		store, err := minio.New(ctx, &o.cfg)
		if err != nil {
			return err
		}
		o.store = store
		return nil
	default:
		return errs.Newf(errs.ErrKindUnsupportedProtocol, "object store provider %q", o.cfg.Provider)
	}
}

func (o *objectTransport) key(p string) string {
	return strings.TrimPrefix(path.Join("/", o.prefix, p), "/")
}

// list returns the keys directly below dir. Object stores have no empty
// directories, so an empty listing below the root is reported as not found.
func (o *objectTransport) list(ctx context.Context, dir string) ([]string, error) {
	prefix := o.key(dir)
	if prefix != "" {
		prefix += "/"
	}
	objs, err := o.store.ListObjects(ctx, o.bucket, filestore.ListOptions{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(objs))
	for _, obj := range objs {
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || name == "/" {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 && cleanPath(dir) != "/" {
		return nil, errs.Newf(errs.ErrKindNotFound, "no objects below s3://%s/%s", o.bucket, prefix)
	}
	return names, nil
}

func (o *objectTransport) open(ctx context.Context, p string) (io.ReadCloser, int64, error) {
	obj, err := o.store.GetObject(ctx, o.bucket, o.key(p))
	if err != nil {
		return nil, 0, err
	}
	return obj, obj.Info().Size, nil
}

func (o *objectTransport) stat(ctx context.Context, p string) (*FileInfo, error) {
	info, err := o.store.StatObject(ctx, o.bucket, o.key(p))
	if err != nil {
		return nil, err
	}
	return &FileInfo{Name: lastElem(p), Size: info.Size, ModTime: info.LastModified}, nil
}
