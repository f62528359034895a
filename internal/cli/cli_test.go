package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/koustreak/timefs/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TIMEFS_CACHE_ROOT", t.TempDir())
	t.Setenv("TIMEFS_LOGGING_LEVEL", "error")

	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func dataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, rel := range []string{
		"2020/20200101_v1.dat",
		"2020/20200101_v2.dat",
		"2020/20200102_v1.dat",
		"2021/20210101_v1.dat",
	} {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(rel), 0o644))
	}
	return dir
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestNamesCommand(t *testing.T) {
	dir := dataDir(t)

	out, err := execute(t, "names", dir, "%Y/%Y%m%d_v%v.dat", "2020-01-01/2020-01-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"2020/20200101_v1.dat", "2020/20200101_v2.dat", "2020/20200102_v1.dat"}, lines(out))

	out, err = execute(t, "names", "--best", dir, "%Y/%Y%m%d_v%v.dat", "2020-01-01/2020-01-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"2020/20200101_v2.dat", "2020/20200102_v1.dat"}, lines(out))
}

func TestNamesCommand_Errors(t *testing.T) {
	dir := dataDir(t)

	_, err := execute(t, "names", dir, "%Y/%Y%m%d_v%v.dat", "yesterday")
	assert.True(t, errs.IsInvalidArgument(err))

	_, err = execute(t, "names", "gopher://example.org/", "%Y.dat", "2020")
	assert.True(t, errs.IsUnsupportedProtocol(err))

	_, err = execute(t, "names", dir)
	assert.Error(t, err)
}

func TestFilesCommand(t *testing.T) {
	dir := dataDir(t)

	out, err := execute(t, "files", "-q", dir, "%Y/%Y%m%d_v%v.dat", "2021")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "2021", "20210101_v1.dat")}, lines(out))
}

func TestGlobCommand(t *testing.T) {
	dir := dataDir(t)

	out, err := execute(t, "glob", dir, "/*/20200101_*")
	require.NoError(t, err)
	assert.Equal(t, []string{"/2020/20200101_v1.dat", "/2020/20200101_v2.dat"}, lines(out))

	out, err = execute(t, "glob", "--uri", dir, "/2021")
	require.NoError(t, err)
	assert.Equal(t, []string{"file://" + filepath.ToSlash(dir) + "/2021"}, lines(out))
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timefs", "config.yaml")

	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "--config", path, "config", "init")
	assert.True(t, errs.IsInvalidArgument(err))

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "chunk_size: 65536")
	assert.Contains(t, out, "level: error")
}

func TestLogLevelFlagValidated(t *testing.T) {
	_, err := execute(t, "--log-level", "chatty", "config", "show")
	assert.True(t, errs.IsInvalidArgument(err))
}
