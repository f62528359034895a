// Package glob selects files of a backend with shell-style wildcards,
// independently of any time template. Only "*" (any run of characters,
// possibly empty) and "?" (exactly one character) are special; there is no
// brace or bracket expansion and a leading dot is not treated specially, so
// "*.dat" also matches ".dat".
package glob

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/vfs"
)

// ToRegex translates a glob into an unanchored regular expression.
func ToRegex(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// Compile returns the anchored pattern for glob.
func Compile(glob string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^" + ToRegex(glob) + "$")
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "compile glob "+glob, err)
	}
	return re, nil
}

// HasWildcard reports whether s contains "*" or "?".
func HasWildcard(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// Expand resolves an absolute glob against b one path segment at a time.
// Literal segments are looked up directly and wildcard segments are listed
// and filtered. Every segment but the last only keeps directories. A root
// segment matching nothing, literal or wildcard, is an InvalidArgument;
// deeper segments matching nothing yield no nodes.
func Expand(ctx context.Context, b vfs.Backend, glob string) ([]*vfs.Node, error) {
	if !strings.HasPrefix(glob, "/") {
		return nil, errs.Newf(errs.ErrKindInvalidArgument, "glob %q is not absolute", glob)
	}
	trimmed := strings.Trim(glob, "/")
	if trimmed == "" {
		return []*vfs.Node{b.Resolve("/")}, nil
	}
	segs := strings.Split(trimmed, "/")

	current := []string{"/"}
	for i, seg := range segs {
		last := i == len(segs)-1
		var next []string

		if !HasWildcard(seg) {
			for _, dir := range current {
				p := path.Join(dir, seg)
				ok, err := keep(ctx, b, p, last)
				if err != nil {
					return nil, err
				}
				if ok {
					next = append(next, p)
				}
			}
		} else {
			re, err := Compile(seg)
			if err != nil {
				return nil, err
			}
			for _, dir := range current {
				names, err := b.ListDirectoryMatching(ctx, dir, re)
				if err != nil {
					return nil, err
				}
				for _, n := range names {
					if !last && !strings.HasSuffix(n, "/") {
						continue
					}
					next = append(next, path.Join(dir, n))
				}
			}
		}

		if len(next) == 0 {
			if i == 0 {
				return nil, errs.Newf(errs.ErrKindInvalidArgument, "glob %q: root segment %q matches nothing", glob, seg)
			}
			return nil, nil
		}
		current = next
	}

	nodes := make([]*vfs.Node, len(current))
	for i, p := range current {
		nodes[i] = b.Resolve(p)
	}
	return nodes, nil
}

// keep checks a literal segment: intermediate ones must be directories,
// the final one must exist.
func keep(ctx context.Context, b vfs.Backend, p string, last bool) (bool, error) {
	if !last {
		return b.IsDirectory(ctx, p)
	}
	return b.Resolve(p).Exists(ctx)
}
