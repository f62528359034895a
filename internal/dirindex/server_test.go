package dirindex

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/koustreak/timefs/internal/logger"
	"github.com/koustreak/timefs/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range map[string]string{
		"2020/20200101.dat": "first day",
		"a&b.txt":           "amp",
		"c:d.txt":           "colon",
	} {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	local, err := vfs.NewLocal(dir)
	require.NoError(t, err)
	return New(local, append([]Option{WithLogger(logger.Nop())}, opts...)...).Handler()
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServer_RootIndex(t *testing.T) {
	rec := do(newHandler(t), http.MethodGet, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Index of /</title>")
	assert.Contains(t, body, `<a href="2020/">2020/</a>`)
	assert.Contains(t, body, `<a href="a&amp;b.txt">a&amp;b.txt</a>`)
	assert.Contains(t, body, `<a href="./c:d.txt">c:d.txt</a>`)
	assert.NotContains(t, body, "Parent Directory")
}

func TestServer_SubdirectoryIndex(t *testing.T) {
	rec := do(newHandler(t), http.MethodGet, "/2020/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="../">Parent Directory</a>`)
	assert.Contains(t, rec.Body.String(), `<a href="20200101.dat">20200101.dat</a>`)
}

func TestServer_DirectoryRedirect(t *testing.T) {
	rec := do(newHandler(t), http.MethodGet, "/2020")

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/2020/", rec.Header().Get("Location"))
}

func TestServer_File(t *testing.T) {
	h := newHandler(t)

	rec := do(h, http.MethodGet, "/2020/20200101.dat")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "first day", string(body))
	assert.NotEmpty(t, rec.Header().Get("Last-Modified"))

	rec = do(h, http.MethodHead, "/2020/20200101.dat")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9", rec.Header().Get("Content-Length"))
}

func TestServer_HeadDirectoryHasNoBody(t *testing.T) {
	rec := do(newHandler(t), http.MethodHead, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestServer_NotFound(t *testing.T) {
	h := newHandler(t)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/2021/").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/2020/20200199.dat").Code)
}

func TestServer_ExtraHandler(t *testing.T) {
	h := newHandler(t, WithHandler("/metrics", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})))

	rec := do(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestEntryHref(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"plain.dat", "plain.dat"},
		{"dir/", "dir/"},
		{"a file.txt", "a%20file.txt"},
		{"c:d.txt", "./c:d.txt"},
		{"50%.txt", "50%25.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entryHref(tt.name))
		})
	}
}
