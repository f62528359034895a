package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/koustreak/timefs/internal/dirindex"
	"github.com/koustreak/timefs/internal/logger"
	"github.com/koustreak/timefs/internal/vfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVFSMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewVFSMetricsWith(reg).(*vfsMetrics)

	m.ListingLookup("http://h/r", true)
	m.ListingLookup("http://h/r", false)
	m.ListingLookup("http://h/r", false)
	m.ProbeCompleted("http://h/r", nil)
	m.ProbeCompleted("http://h/r", errors.New("down"))
	m.DownloadCompleted("http://h/r", 100, time.Second, nil)
	m.DownloadCompleted("http://h/r", 20, time.Second, errors.New("reset"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.listingLookups.WithLabelValues("http://h/r", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.listingLookups.WithLabelValues("http://h/r", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.probes.WithLabelValues("http://h/r", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.downloads.WithLabelValues("http://h/r", "success")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.downloadBytes.WithLabelValues("http://h/r")))
}

func TestVFSMetrics_WiredIntoRemoteBackend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2020"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2020", "a.dat"), []byte("abc"), 0o644))
	local, err := vfs.NewLocal(dir)
	require.NoError(t, err)
	srv := httptest.NewServer(dirindex.New(local, dirindex.WithLogger(logger.Nop())).Handler())
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := NewVFSMetricsWith(reg).(*vfsMetrics)
	r := vfs.NewRegistry(vfs.Options{CacheRoot: t.TempDir(), Logger: logger.Nop(), Metrics: m})

	b, err := r.Resolve(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = b.ListDirectory(context.Background(), "/2020")
	require.NoError(t, err)
	_, err = b.ListDirectory(context.Background(), "/2020")
	require.NoError(t, err)
	_, err = b.GetFile(context.Background(), "/2020/a.dat", nil)
	require.NoError(t, err)

	root := b.Root()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.probes.WithLabelValues(root, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.listingLookups.WithLabelValues(root, "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.listingLookups.WithLabelValues(root, "hit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.downloadBytes.WithLabelValues(root)))
}

func TestHandler_Disabled(t *testing.T) {
	if IsEnabled() {
		t.Skip("process registry already initialised")
	}
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
