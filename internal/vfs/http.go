package vfs

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/koustreak/timefs/internal/errs"
	"golang.org/x/net/html"
)

// NewHTTP returns a caching backend over an http:// or https:// root whose
// directories are served as HTML index pages.
func NewHTTP(ctx context.Context, root *url.URL, opts Options) (*Remote, error) {
	opts = opts.withDefaults()
	u := *root
	u.RawQuery, u.Fragment = "", ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	t := &httpTransport{root: &u, client: opts.HTTPClient, userAgent: opts.UserAgent}
	return newRemote(ctx, &u, t, opts)
}

type httpTransport struct {
	root      *url.URL
	client    *http.Client
	userAgent string
}

func (h *httpTransport) url(p string) *url.URL {
	u := *h.root
	u.Path = h.root.Path + p
	u.RawPath = ""
	return &u
}

func (h *httpTransport) do(ctx context.Context, method string, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "build request", err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrKindCancelled, method+" "+u.String(), err)
		}
		return nil, errs.Wrap(errs.ErrKindIOFailure, method+" "+u.String(), err)
	}
	return resp, nil
}

// checkStatus closes resp and returns an error for non-2xx responses.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	resp.Body.Close()
	msg := resp.Request.Method + " " + resp.Request.URL.String() + ": " + resp.Status
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return errs.New(errs.ErrKindNotFound, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.New(errs.ErrKindPermissionDenied, msg)
	default:
		return errs.New(errs.ErrKindIOFailure, msg)
	}
}

// probe sends HEAD to the root, falling back to GET for servers that
// refuse HEAD.
func (h *httpTransport) probe(ctx context.Context) error {
	u := h.url("/")
	resp, err := h.do(ctx, http.MethodHead, u)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp.Body.Close()
		resp, err = h.do(ctx, http.MethodGet, u)
		if err != nil {
			return err
		}
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (h *httpTransport) list(ctx context.Context, dir string) ([]string, error) {
	resp, err := h.do(ctx, http.MethodGet, h.url(dir))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Resolve against the final URL so redirects to "dir/" are honored.
	base := *resp.Request.URL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
		base.RawPath = ""
	}
	names, err := parseIndex(resp.Body, &base)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindIOFailure, "parse index "+base.String(), err)
	}
	return names, nil
}

func (h *httpTransport) open(ctx context.Context, p string) (io.ReadCloser, int64, error) {
	resp, err := h.do(ctx, http.MethodGet, h.url(p))
	if err != nil {
		return nil, 0, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

func (h *httpTransport) stat(ctx context.Context, p string) (*FileInfo, error) {
	resp, err := h.do(ctx, http.MethodHead, h.url(p))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	resp.Body.Close()

	fi := &FileInfo{Name: lastElem(p), Size: resp.ContentLength}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			fi.ModTime = t
		}
	}
	return fi, nil
}

// parseIndex extracts the entries of an HTML directory index: every href
// that resolves to a direct child of base and carries no query string.
// Entries keep their trailing "/" and are returned unescaped, in document
// order, without duplicates.
func parseIndex(r io.Reader, base *url.URL) ([]string, error) {
	z := html.NewTokenizer(r)
	seen := make(map[string]bool)
	var names []string

	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return names, nil
			}
			return nil, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tag, hasAttr := z.TagName()
			if string(tag) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if name, ok := childName(base, string(val)); ok && !seen[name] {
						seen[name] = true
						names = append(names, name)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

// childName returns the entry name href points to when it is a direct
// child of base.
func childName(base *url.URL, href string) (string, bool) {
	if strings.Contains(href, "?") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	res := base.ResolveReference(ref)
	if res.Scheme != base.Scheme || res.Host != base.Host {
		return "", false
	}
	if !strings.HasPrefix(res.Path, base.Path) {
		return "", false
	}
	rest := res.Path[len(base.Path):]
	name := strings.TrimSuffix(rest, "/")
	if name == "" || strings.Contains(name, "/") || name == "." || name == ".." {
		return "", false
	}
	return rest, true
}

func lastElem(p string) string {
	p = strings.TrimSuffix(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
