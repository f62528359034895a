package glob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		glob  string
		name  string
		match bool
	}{
		{"*.dat", "foo.dat", true},
		{"*.dat", ".dat", true},
		{"*.dat", "foo.dat.gz", false},
		{"*.dat", "fooXdat", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"file(1)+.txt", "file(1)+.txt", true},
		{"2020*", "20200101.dat", true},
	}
	for _, tt := range tests {
		t.Run(tt.glob+"~"+tt.name, func(t *testing.T) {
			re, err := Compile(tt.glob)
			require.NoError(t, err)
			assert.Equal(t, tt.match, re.MatchString(tt.name))
		})
	}
}

func TestToRegex(t *testing.T) {
	assert.Equal(t, `.*\.dat`, ToRegex("*.dat"))
	assert.Equal(t, `a.c`, ToRegex("a?c"))
}

func newBackend(t *testing.T) vfs.Backend {
	t.Helper()
	dir := t.TempDir()
	for _, rel := range []string{
		"data/2020/20200101.dat",
		"data/2020/20200102.dat",
		"data/2020/notes.txt",
		"data/2021/20210101.dat",
		"data/2021.dat",
		"other/x.dat",
	} {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(rel), 0o644))
	}
	b, err := vfs.NewLocal(dir)
	require.NoError(t, err)
	return b
}

func paths(nodes []*vfs.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Path()
	}
	return out
}

func TestExpand(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	tests := []struct {
		glob string
		want []string
	}{
		{"/data/2020/*.dat", []string{"/data/2020/20200101.dat", "/data/2020/20200102.dat"}},
		{"/data/*/*.dat", []string{"/data/2020/20200101.dat", "/data/2020/20200102.dat", "/data/2021/20210101.dat"}},
		{"/data/202?", []string{"/data/2020", "/data/2021"}},
		{"/*/x.dat", []string{"/other/x.dat"}},
		{"/data/2020/notes.txt", []string{"/data/2020/notes.txt"}},
		{"/data/2020/missing.txt", nil},
		{"/data/19*/*.dat", nil},
	}
	for _, tt := range tests {
		t.Run(tt.glob, func(t *testing.T) {
			nodes, err := Expand(ctx, b, tt.glob)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, nodes)
				return
			}
			assert.Equal(t, tt.want, paths(nodes))
		})
	}
}

func TestExpand_IntermediateSegmentsKeepFoldersOnly(t *testing.T) {
	b := newBackend(t)
	nodes, err := Expand(context.Background(), b, "/data/2021*/*.dat")
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/2021/20210101.dat"}, paths(nodes))
}

func TestExpand_Errors(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	for _, glob := range []string{
		"data/*.dat",
		"/nope/*.dat",
		"/nope",
		"/zz*/x.dat",
		"/zz?",
	} {
		t.Run(glob, func(t *testing.T) {
			_, err := Expand(ctx, b, glob)
			require.Error(t, err)
			assert.True(t, errs.IsInvalidArgument(err))
		})
	}
}
