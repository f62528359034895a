// Package timetemplate compiles date/time filename templates such as
// "%Y/%Y%m%d.dat" into anchored regular expressions and converts matching
// names into the time interval they cover.
//
// Template codes:
//
//	%Y  4-digit year        %y  2-digit year (<58 is 20xx, else 19xx)
//	%m  2-digit month       %b  3-letter month name
//	%d  2-digit day         %j  3-digit day of year
//	%H  2-digit hour        %M  2-digit minute     %S  2-digit second
//	%v  dotted numeric version   %V  free-form version
//	%%  a literal percent sign
//
// A code seen a second time captures the same field of the end instant, so
// "%Y%m%d_%Y%m%d" spans two dates. Everything else is literal text.
package timetemplate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/timerange"
)

// ErrNoMatch is the cause of errors for names the template does not match.
var ErrNoMatch = errors.New("name does not match template")

// code describes one %-code of the template language.
type code struct {
	group    string
	start    FieldRole
	end      FieldRole
	variable bool
}

var codes = map[byte]code{
	'Y': {group: `([0-9]{4})`, start: StartYear4, end: EndYear4},
	'y': {group: `([0-9]{2})`, start: StartYear2, end: EndYear2},
	'j': {group: `([0-9]{3})`, start: StartDayOfYear, end: EndDayOfYear},
	'm': {group: `([0-9]{2})`, start: StartMonth, end: EndMonth},
	'b': {group: `([A-Za-z]{3})`, start: StartMonthName, end: EndMonthName},
	'd': {group: `([0-9]{2})`, start: StartDay, end: EndDay},
	'H': {group: `([0-9]{2})`, start: StartHour, end: EndHour},
	'M': {group: `([0-9]{2})`, start: StartMinute, end: EndMinute},
	'S': {group: `([0-9]{2})`, start: StartSecond, end: EndSecond},
	'v': {group: `([0-9]+(?:\.[0-9]+)*)`, start: Version, end: Version, variable: true},
	'V': {group: `([A-Za-z0-9_.\-]+?)`, start: Version, end: Version, variable: true},
}

// Template is a compiled filename template. It is immutable and safe for
// concurrent use.
type Template struct {
	source      string
	re          *regexp.Regexp
	roles       []FieldRole
	granularity Granularity
}

// HasCodes reports whether s contains any %-code other than %%.
func HasCodes(s string) bool {
	for i := 0; i < len(s)-1; i++ {
		if s[i] != '%' {
			continue
		}
		if s[i+1] == '%' {
			i++
			continue
		}
		return true
	}
	return false
}

// translate turns a template into an unanchored pattern and its roles.
func translate(template string) (string, []FieldRole, error) {
	var (
		pattern      strings.Builder
		literal      strings.Builder
		out          []FieldRole
		seen         = make(map[byte]int)
		prevVariable bool
	)

	flush := func() {
		if literal.Len() > 0 {
			pattern.WriteString(regexp.QuoteMeta(literal.String()))
			literal.Reset()
			prevVariable = false
		}
	}

	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' {
			literal.WriteByte(c)
			continue
		}
		if i+1 == len(template) {
			return "", nil, errs.Newf(errs.ErrKindInvalidArgument, "template %q ends with a dangling %%", template)
		}
		i++
		if template[i] == '%' {
			literal.WriteByte('%')
			continue
		}
		cd, ok := codes[template[i]]
		if !ok {
			return "", nil, errs.Newf(errs.ErrKindInvalidArgument, "template %q: unknown code %%%c", template, template[i])
		}
		flush()
		if cd.variable && prevVariable {
			return "", nil, errs.Newf(errs.ErrKindInvalidArgument,
				"template %q: variable-width %%%c directly follows another variable-width code", template, template[i])
		}

		role := cd.start
		if seen[template[i]] > 0 {
			role = cd.end
		}
		seen[template[i]]++

		pattern.WriteString(cd.group)
		out = append(out, role)
		prevVariable = cd.variable
	}
	flush()

	return pattern.String(), out, nil
}

// SegmentPattern compiles a template into an anchored pattern without any
// time-field validation. It is used to filter directory entries for path
// segments that may carry no time field at all.
func SegmentPattern(template string) (*regexp.Regexp, error) {
	pattern, _, err := translate(template)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "compile segment "+template, err)
	}
	return re, nil
}

// Compile compiles a %-code template.
func Compile(template string) (*Template, error) {
	pattern, rs, err := translate(template)
	if err != nil {
		return nil, err
	}
	t, err := build(pattern, rs)
	if err != nil {
		return nil, err
	}
	t.source = template
	return t, nil
}

// MustCompile is Compile for templates known to be valid; it panics otherwise.
func MustCompile(template string) *Template {
	t, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return t
}

// New builds a template from an explicit regular expression whose capture
// groups, in order, have the given roles. Use it when the naming scheme
// cannot be written with %-codes.
func New(regex string, fieldRoles []FieldRole) (*Template, error) {
	t, err := build(regex, fieldRoles)
	if err != nil {
		return nil, err
	}
	t.source = regex
	return t, nil
}

func build(pattern string, fieldRoles []FieldRole) (*Template, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "compile pattern "+pattern, err)
	}
	if re.NumSubexp() != len(fieldRoles) {
		return nil, errs.Newf(errs.ErrKindInvalidArgument,
			"pattern %q has %d capture groups but %d field roles", pattern, re.NumSubexp(), len(fieldRoles))
	}
	for _, r := range fieldRoles {
		if !r.valid() {
			return nil, errs.Newf(errs.ErrKindInvalidArgument, "invalid field role %d", int(r))
		}
	}

	g, err := implicitGranularity(fieldRoles)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "pattern "+pattern, err)
	}

	return &Template{
		re:          re,
		roles:       append([]FieldRole(nil), fieldRoles...),
		granularity: g,
	}, nil
}

var fieldNames = [numFields]string{"year", "month", "day", "hour", "minute", "second"}

// implicitGranularity applies the no-gaps rule to the start-side fields and
// returns the least significant one present. Day of year stands in for
// both month and day.
func implicitGranularity(fieldRoles []FieldRole) (Granularity, error) {
	var present [numFields]bool
	for _, r := range fieldRoles {
		if !r.IsTime() || r.IsEnd() {
			continue
		}
		f := roles[r].field
		if f == fieldDayOfYear {
			present[fieldMonth] = true
			present[fieldDay] = true
			continue
		}
		present[f] = true
	}

	for f := fieldSecond; f > fieldYear; f-- {
		if present[f] && !present[f-1] {
			return 0, fmt.Errorf("%s is present without %s", fieldNames[f], fieldNames[f-1])
		}
	}

	for f := fieldSecond; f >= fieldYear; f-- {
		if present[f] {
			return Granularity(f), nil
		}
	}
	return 0, errors.New("no start time field")
}

// String returns the template or pattern the Template was built from.
func (t *Template) String() string {
	return t.source
}

// Regexp returns the anchored pattern. Callers must not modify it.
func (t *Template) Regexp() *regexp.Regexp {
	return t.re
}

// Roles returns a copy of the field roles, one per capture group.
func (t *Template) Roles() []FieldRole {
	return append([]FieldRole(nil), t.roles...)
}

// Granularity is the implicit width of a single match.
func (t *Template) Granularity() Granularity {
	return t.granularity
}

// Match reports whether name matches the template.
func (t *Template) Match(name string) bool {
	return t.re.MatchString(name)
}

// MatchToRange returns the interval covered by name: from the start
// fields up to one granularity unit past the end fields, where end fields
// the template does not capture are taken from the start.
func (t *Template) MatchToRange(name string) (timerange.Range, error) {
	m := t.re.FindStringSubmatch(name)
	if m == nil {
		return timerange.Range{}, errs.Wrap(errs.ErrKindInvalidArgument, fmt.Sprintf("%q against %q", name, t.source), ErrNoMatch)
	}

	start, end := newTimeStruct(), timeStruct{}
	for i, r := range t.roles {
		if err := r.apply(m[i+1], &start, &end); err != nil {
			return timerange.Range{}, fmt.Errorf("name %q: %w", name, err)
		}
	}

	start.normalize()
	if end.hasDOY && !end.has[fieldYear] {
		end.set(fieldYear, start.values[fieldYear])
	}
	end.normalize()
	end.fillFrom(&start)

	st := start.time()
	et := t.granularity.Next(end.time())
	if !et.After(st) {
		return timerange.Range{}, errs.Newf(errs.ErrKindInvalidArgument, "name %q: end precedes start", name)
	}
	return timerange.Range{Start: st, End: et}, nil
}

// Version returns the text captured by the first version field of name.
func (t *Template) Version(name string) (string, bool) {
	m := t.re.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	for i, r := range t.roles {
		if r == Version {
			return m[i+1], true
		}
	}
	return "", false
}
