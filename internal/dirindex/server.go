// Package dirindex serves a vfs.Backend over HTTP as Apache-style directory
// index pages, the format the HTTP backend reads. It lets any backend,
// including a local directory, be re-exported to other timefs clients.
package dirindex

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/logger"
	"github.com/koustreak/timefs/internal/vfs"
)

// Server renders directories of a backend as index pages and serves files
// through GetFile.
type Server struct {
	backend vfs.Backend
	log     *logger.Logger
	extra   []route
}

type route struct {
	pattern string
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithHandler mounts h at pattern ahead of the file tree, e.g. "/metrics".
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) { s.extra = append(s.extra, route{pattern, h}) }
}

func New(b vfs.Backend, opts ...Option) *Server {
	s := &Server{backend: b, log: logger.Global()}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.Component("dirindex")
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	for _, e := range s.extra {
		r.Handle(e.pattern, e.handler)
	}
	r.Get("/*", s.serve)
	r.Head("/*", s.serve)
	return r
}

// logRequests logs every request and puts a request-scoped logger in its
// context.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLog := s.log.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		began := time.Now()
		next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))
		reqLog.DebugWith("request", map[string]interface{}{
			"status":   ww.Status(),
			"duration": time.Since(began).String(),
		})
	})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := r.URL.Path

	isDir, err := s.backend.IsDirectory(ctx, p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if isDir {
		if !strings.HasSuffix(p, "/") {
			http.Redirect(w, r, p+"/", http.StatusMovedPermanently)
			return
		}
		s.index(w, r, p)
		return
	}

	local, err := s.backend.GetFile(ctx, p, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	f, err := os.Open(local)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.ServeContent(w, r, path.Base(p), fi.ModTime(), f)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request, dir string) {
	names, err := s.backend.ListDirectory(r.Context(), dir)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}

	title := html.EscapeString("Index of " + dir)
	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html>\n<head><title>%s</title></head>\n<body>\n<h1>%s</h1>\n", title, title)
	b.WriteString("<table>\n<tr><th><a href=\"?C=N;O=D\">Name</a></th></tr>\n")
	if dir != "/" {
		b.WriteString("<tr><td><a href=\"../\">Parent Directory</a></td></tr>\n")
	}
	for _, n := range names {
		fmt.Fprintf(&b, "<tr><td><a href=\"%s\">%s</a></td></tr>\n",
			html.EscapeString(entryHref(n)), html.EscapeString(n))
	}
	b.WriteString("</table>\n</body>\n</html>\n")
	_, _ = w.Write([]byte(b.String()))
}

// entryHref escapes a listing entry for use as a relative link, keeping a
// directory's trailing slash.
func entryHref(name string) string {
	trimmed := strings.TrimSuffix(name, "/")
	href := url.PathEscape(trimmed)
	if strings.Contains(trimmed, ":") {
		href = "./" + href
	}
	if trimmed != name {
		href += "/"
	}
	return href
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		status = http.StatusNotFound
	case errs.ErrKindPermissionDenied:
		status = http.StatusForbidden
	case errs.ErrKindInvalidArgument:
		status = http.StatusBadRequest
	case errs.ErrKindFileSystemOffline:
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).ErrorWith("request failed", err, nil)
	}
	http.Error(w, http.StatusText(status), status)
}
