package vfs

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apacheIndex = `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 3.2 Final//EN">
<html>
 <head><title>Index of /pub/data/2020</title></head>
 <body>
<h1>Index of /pub/data/2020</h1>
<table>
<tr><th><a href="?C=N;O=D">Name</a></th><th><a href="?C=M;O=A">Last modified</a></th></tr>
<tr><td><a href="/pub/data/">Parent Directory</a></td></tr>
<tr><td><a href="../">Up</a></td></tr>
<tr><td><a href="20200101.dat">20200101.dat</a></td></tr>
<tr><td><a href="20200101.dat">20200101.dat</a></td></tr>
<tr><td><a href="a%20b.dat">a b.dat</a></td></tr>
<tr><td><a href="day01/">day01/</a></td></tr>
<tr><td><a href="/pub/data/2020/20200102.dat">absolute</a></td></tr>
<tr><td><a href="http://mirror.example.org/pub/data/2020/x.dat">elsewhere</a></td></tr>
<tr><td><a href="sub/deeper.dat">too deep</a></td></tr>
<tr><td><a href="#top">top</a></td></tr>
<tr><td><a name="anchor">no href</a></td></tr>
</table>
</body></html>`

func TestParseIndex(t *testing.T) {
	base, err := url.Parse("http://example.org/pub/data/2020/")
	require.NoError(t, err)

	names, err := parseIndex(strings.NewReader(apacheIndex), base)
	require.NoError(t, err)
	assert.Equal(t, []string{"20200101.dat", "a b.dat", "day01/", "20200102.dat"}, names)
}

func TestChildName(t *testing.T) {
	base, _ := url.Parse("http://example.org/data/")

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"x.dat", "x.dat", true},
		{"dir/", "dir/", true},
		{"./x.dat", "x.dat", true},
		{"x.dat?download=1", "", false},
		{"../", "", false},
		{"", "", false},
		{"/data/", "", false},
		{"a/b.dat", "", false},
		{"https://example.org/data/x.dat", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, ok := childName(base, tt.href)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
