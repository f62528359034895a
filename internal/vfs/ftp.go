package vfs

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/koustreak/timefs/internal/errs"
)

// NewFTP returns a caching backend over an ftp:// root. Credentials in the
// URI take precedence over Options; with neither, the login is anonymous.
func NewFTP(ctx context.Context, root *url.URL, opts Options) (*Remote, error) {
	opts = opts.withDefaults()
	u := *root
	u.RawQuery, u.Fragment = "", ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	t := &ftpTransport{
		addr:     u.Host,
		root:     u.Path,
		user:     "anonymous",
		password: "anonymous",
		timeout:  opts.Timeout,
	}
	if u.Port() == "" {
		t.addr = net.JoinHostPort(u.Hostname(), "21")
	}
	if opts.FTPUser != "" {
		t.user, t.password = opts.FTPUser, opts.FTPPassword
	}
	if u.User != nil {
		t.user = u.User.Username()
		t.password, _ = u.User.Password()
	}

	return newRemote(ctx, &u, t, opts)
}

// ftpTransport opens one control connection per operation.
type ftpTransport struct {
	addr     string
	root     string
	user     string
	password string
	timeout  time.Duration
}

func (f *ftpTransport) dial(ctx context.Context) (*ftp.ServerConn, error) {
	c, err := ftp.Dial(f.addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(f.timeout))
	if err != nil {
		return nil, mapFTPError(ctx, err, "dial "+f.addr)
	}
	if err := c.Login(f.user, f.password); err != nil {
		_ = c.Quit()
		return nil, mapFTPError(ctx, err, "login as "+f.user)
	}
	return c, nil
}

func (f *ftpTransport) remote(p string) string {
	return path.Join("/", f.root, p)
}

func (f *ftpTransport) probe(ctx context.Context) error {
	c, err := f.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Quit()
	if err := c.ChangeDir(f.remote("/")); err != nil {
		return mapFTPError(ctx, err, "cwd "+f.remote("/"))
	}
	return nil
}

func (f *ftpTransport) list(ctx context.Context, dir string) ([]string, error) {
	c, err := f.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Quit()

	entries, err := c.List(f.remote(dir))
	if err != nil {
		return nil, mapFTPError(ctx, err, "list "+dir)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." || e.Name == "" {
			continue
		}
		name := path.Base(e.Name)
		if e.Type == ftp.EntryTypeFolder {
			name += "/"
		}
		names = append(names, name)
	}
	return names, nil
}

func (f *ftpTransport) open(ctx context.Context, p string) (io.ReadCloser, int64, error) {
	c, err := f.dial(ctx)
	if err != nil {
		return nil, 0, err
	}
	size, err := c.FileSize(f.remote(p))
	if err != nil {
		size = -1
	}
	resp, err := c.Retr(f.remote(p))
	if err != nil {
		_ = c.Quit()
		return nil, 0, mapFTPError(ctx, err, "retr "+p)
	}
	return &ftpReader{Response: resp, conn: c}, size, nil
}

func (f *ftpTransport) stat(ctx context.Context, p string) (*FileInfo, error) {
	c, err := f.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Quit()

	size, err := c.FileSize(f.remote(p))
	if err != nil {
		return nil, mapFTPError(ctx, err, "size "+p)
	}
	return &FileInfo{Name: lastElem(p), Size: size}, nil
}

// ftpReader closes the data connection and then the control connection.
type ftpReader struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpReader) Close() error {
	err := r.Response.Close()
	if qerr := r.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}

// mapFTPError translates FTP reply codes into a *errs.Error.
func mapFTPError(ctx context.Context, err error, msg string) *errs.Error {
	if ctx.Err() != nil {
		return errs.Wrap(errs.ErrKindCancelled, msg, err)
	}
	var reply *textproto.Error
	if errors.As(err, &reply) {
		switch reply.Code {
		case ftp.StatusFileUnavailable:
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case ftp.StatusNotLoggedIn:
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		}
	}
	return errs.Wrap(errs.ErrKindIOFailure, msg, err)
}
