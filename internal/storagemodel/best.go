package storagemodel

import (
	"context"

	"github.com/koustreak/timefs/internal/progress"
	"github.com/koustreak/timefs/internal/timerange"
	"github.com/koustreak/timefs/internal/timetemplate"
)

// BestNamesFor is NamesFor keeping, among names that cover the same
// interval, only the one with the highest version. Templates without a
// version field return the same names as NamesFor.
func (m *Model) BestNamesFor(ctx context.Context, r timerange.Range) ([]string, error) {
	names, err := m.NamesFor(ctx, r)
	if err != nil {
		return nil, err
	}
	if !m.hasVersion() {
		return names, nil
	}

	type span struct{ start, end int64 }
	best := make(map[span]int)
	var out []string
	for _, name := range names {
		nr, err := m.tmpl.MatchToRange(name)
		if err != nil {
			return nil, err
		}
		key := span{nr.Start.UnixNano(), nr.End.UnixNano()}
		i, seen := best[key]
		if !seen {
			best[key] = len(out)
			out = append(out, name)
			continue
		}
		if m.newer(name, out[i]) {
			out[i] = name
		}
	}
	return out, nil
}

// BestFilesFor materializes the names BestNamesFor returns.
func (m *Model) BestFilesFor(ctx context.Context, r timerange.Range, mon progress.Monitor) ([]string, error) {
	names, err := m.BestNamesFor(ctx, r)
	if err != nil {
		progress.OrNull(mon).Finished()
		return nil, err
	}
	return m.materialize(ctx, names, mon)
}

func (m *Model) hasVersion() bool {
	for _, r := range m.tmpl.Roles() {
		if r == timetemplate.Version {
			return true
		}
	}
	return false
}

func (m *Model) newer(a, b string) bool {
	va, _ := m.tmpl.Version(a)
	vb, _ := m.tmpl.Version(b)
	return timetemplate.CompareVersions(va, vb) > 0
}
