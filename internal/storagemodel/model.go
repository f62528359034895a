// Package storagemodel maps time ranges onto the files of a backend whose
// names encode time through a timetemplate, such as "%Y/%Y%m%d.dat".
//
// A model is a chain of nodes, one per path segment that carries time
// codes. A query walks the chain from the root: each node lists only the
// directories its parent kept for the same range, so a query touches one
// listing per directory it actually needs.
package storagemodel

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/logger"
	"github.com/koustreak/timefs/internal/progress"
	"github.com/koustreak/timefs/internal/timerange"
	"github.com/koustreak/timefs/internal/timetemplate"
	"github.com/koustreak/timefs/internal/vfs"
)

// unitsPerName is the progress share of each file in FilesFor.
const unitsPerName = 1000

// Model is one node of a file storage model. It is immutable apart from
// the name↔file map filled by FilesFor, and safe for concurrent use.
type Model struct {
	backend vfs.Backend
	parent  *Model
	tmpl    *timetemplate.Template

	// segment filters the entries of each listed directory.
	segment *regexp.Regexp

	// dir and namePrefix locate the listing of a root node: the literal
	// directory part of its template.
	dir        string
	namePrefix string

	log *logger.Logger

	mu     sync.RWMutex
	byFile map[string]string
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger for query summaries.
func WithLogger(l *logger.Logger) Option {
	return func(m *Model) { m.log = l }
}

// Create builds the model for template on b. Template paths are relative
// to the backend root; every "/"-separated prefix that carries time codes
// becomes a parent node.
func Create(b vfs.Backend, template string, opts ...Option) (*Model, error) {
	template = strings.TrimPrefix(template, "/")
	if template == "" {
		return nil, errs.New(errs.ErrKindInvalidArgument, "empty template")
	}

	tmpl, err := timetemplate.Compile(template)
	if err != nil {
		return nil, err
	}

	m := newModel(b, tmpl, opts)

	prefix, last := "", template
	if i := strings.LastIndex(template, "/"); i >= 0 {
		prefix, last = template[:i], template[i+1:]
	}
	if m.segment, err = timetemplate.SegmentPattern(last); err != nil {
		return nil, err
	}

	switch {
	case prefix == "":
		m.dir = "/"
	case timetemplate.HasCodes(prefix):
		if m.parent, err = Create(b, prefix, opts...); err != nil {
			return nil, fmt.Errorf("parent of %q: %w", template, err)
		}
	default:
		m.dir = "/" + unescapePercent(prefix)
		m.namePrefix = unescapePercent(prefix) + "/"
	}
	return m, nil
}

// CreateRegexp builds a single-level model from an explicit pattern whose
// capture groups have the given roles. Entries of the backend root are
// matched against the whole pattern.
func CreateRegexp(b vfs.Backend, regex string, roles []timetemplate.FieldRole, opts ...Option) (*Model, error) {
	tmpl, err := timetemplate.New(regex, roles)
	if err != nil {
		return nil, err
	}
	m := newModel(b, tmpl, opts)
	m.segment = tmpl.Regexp()
	m.dir = "/"
	return m, nil
}

func newModel(b vfs.Backend, tmpl *timetemplate.Template, opts []Option) *Model {
	m := &Model{
		backend: b,
		tmpl:    tmpl,
		log:     logger.Global(),
		byFile:  make(map[string]string),
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.Component("storagemodel")
	return m
}

// unescapePercent turns the "%%" escapes of a code-free template back into
// literal text.
func unescapePercent(s string) string {
	return strings.ReplaceAll(s, "%%", "%")
}

func (m *Model) Backend() vfs.Backend {
	return m.backend
}

// Parent is the model of the enclosing time-coded directories, nil for a
// root node.
func (m *Model) Parent() *Model {
	return m.parent
}

// Template is the compiled template covering the full relative name.
func (m *Model) Template() *timetemplate.Template {
	return m.tmpl
}

func (m *Model) String() string {
	return m.backend.Root() + "/" + m.tmpl.String()
}

// RangeFor returns the interval covered by name.
func (m *Model) RangeFor(name string) (timerange.Range, error) {
	return m.tmpl.MatchToRange(name)
}

// NamesFor returns the names, relative to the backend root, of the files
// whose interval intersects r, in lexical order. A listed name the template
// cannot convert is an InvalidArgument error.
func (m *Model) NamesFor(ctx context.Context, r timerange.Range) ([]string, error) {
	candidates, err := m.candidates(ctx, r)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, c := range candidates {
		cr, err := m.tmpl.MatchToRange(c)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.tmpl, err)
		}
		if cr.Intersects(r) {
			names = append(names, c)
		}
	}
	sort.Strings(names)

	m.log.DebugWith("resolved names", map[string]interface{}{
		"template":   m.tmpl.String(),
		"range":      r.String(),
		"candidates": len(candidates),
		"names":      len(names),
	})
	return names, nil
}

// candidates lists this node's entries below every parent name kept for r.
func (m *Model) candidates(ctx context.Context, r timerange.Range) ([]string, error) {
	if m.parent == nil {
		entries, err := m.backend.ListDirectoryMatching(ctx, m.dir, m.segment)
		if err != nil {
			if errs.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = m.namePrefix + strings.TrimSuffix(e, "/")
		}
		return out, nil
	}

	parents, err := m.parent.NamesFor(ctx, r)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, pn := range parents {
		sub := vfs.NewSub(m.backend, "/"+pn)
		entries, err := sub.ListDirectoryMatching(ctx, "/", m.segment)
		if err != nil {
			if errs.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			out = append(out, pn+"/"+strings.TrimSuffix(e, "/"))
		}
	}
	return out, nil
}

// FilesFor materializes every name NamesFor returns for r and records
// which name each local file belongs to. Every name is attempted: the
// result holds the files that could be materialized, in name order, and
// the error joins the failures of all others.
func (m *Model) FilesFor(ctx context.Context, r timerange.Range, mon progress.Monitor) ([]string, error) {
	names, err := m.NamesFor(ctx, r)
	if err != nil {
		progress.OrNull(mon).Finished()
		return nil, err
	}
	return m.materialize(ctx, names, mon)
}

func (m *Model) materialize(ctx context.Context, names []string, mon progress.Monitor) ([]string, error) {
	mon = progress.OrNull(mon)
	defer mon.Finished()
	mon.SetTaskSize(int64(len(names)) * unitsPerName)

	var (
		files    []string
		failures []error
	)
	for i, name := range names {
		sub := progress.Sub(mon, int64(i)*unitsPerName, int64(i+1)*unitsPerName)
		local, err := m.backend.GetFile(ctx, "/"+name, sub)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			continue
		}
		m.record(local, name)
		files = append(files, local)
	}

	if len(failures) > 0 {
		m.log.WarnWith("some files could not be materialized", failures[0], map[string]interface{}{
			"template": m.tmpl.String(),
			"failed":   len(failures),
			"ok":       len(files),
		})
	}
	return files, errors.Join(failures...)
}

func (m *Model) record(local, name string) {
	m.mu.Lock()
	m.byFile[filepath.Clean(local)] = name
	m.mu.Unlock()
}

// NameFor returns the name a file returned by FilesFor was materialized
// from, or a NotFromModel error.
func (m *Model) NameFor(local string) (string, error) {
	m.mu.RLock()
	name, ok := m.byFile[filepath.Clean(local)]
	m.mu.RUnlock()
	if !ok {
		return "", errs.Newf(errs.ErrKindNotFromModel, "%s was not materialized by model %s", local, m.tmpl)
	}
	return name, nil
}

// ContainsFile reports whether local was materialized by this model and its
// name still matches the template.
func (m *Model) ContainsFile(local string) bool {
	name, err := m.NameFor(local)
	if err != nil {
		return false
	}
	return m.tmpl.Match(name)
}
