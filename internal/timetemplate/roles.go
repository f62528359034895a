package timetemplate

import (
	"strconv"
	"strings"

	"github.com/koustreak/timefs/internal/errs"
)

// FieldRole says what a capture group of a template means.
type FieldRole int

const (
	Ignore FieldRole = iota
	Version

	StartYear4
	StartYear2
	StartMonth
	StartMonthName
	StartDay
	StartDayOfYear
	StartHour
	StartMinute
	StartSecond

	EndYear4
	EndYear2
	EndMonth
	EndMonthName
	EndDay
	EndDayOfYear
	EndHour
	EndMinute
	EndSecond

	numRoles
)

// field is a calendar field, ordered from most to least significant.
type field int

const (
	fieldYear field = iota
	fieldMonth
	fieldDay
	fieldHour
	fieldMinute
	fieldSecond
	numFields

	// fieldDayOfYear is stored apart from the calendar fields and folded
	// into month and day by normalize.
	fieldDayOfYear field = -1
	fieldNone      field = -2
)

type side int

const (
	startSide side = iota
	endSide
)

// roleInfo describes one role: its name, the field it sets and the side it
// sets it on, and how a captured value is parsed.
type roleInfo struct {
	name  string
	field field
	side  side
	parse func(string) (int, error)
}

func parseInt(lo, hi int) func(string) (int, error) {
	return func(s string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, errs.Wrap(errs.ErrKindInvalidArgument, "field "+strconv.Quote(s)+" is not a number", err)
		}
		if v < lo || v > hi {
			return 0, errs.Newf(errs.ErrKindInvalidArgument, "field value %d outside [%d, %d]", v, lo, hi)
		}
		return v, nil
	}
}

// parseYear2 pivots two-digit years: below 58 is 20xx, otherwise 19xx.
func parseYear2(s string) (int, error) {
	v, err := parseInt(0, 99)(s)
	if err != nil {
		return 0, err
	}
	if v < 58 {
		return 2000 + v, nil
	}
	return 1900 + v, nil
}

var monthNames = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

func parseMonthName(s string) (int, error) {
	lower := strings.ToLower(s)
	for i, n := range monthNames {
		if strings.HasPrefix(lower, n) {
			return i + 1, nil
		}
	}
	return 0, errs.Newf(errs.ErrKindInvalidArgument, "unknown month name %q", s)
}

var (
	parseYear4  = parseInt(0, 9999)
	parseMonth  = parseInt(1, 12)
	parseDay    = parseInt(1, 31)
	parseDOY    = parseInt(1, 366)
	parseHour   = parseInt(0, 24)
	parseMinute = parseInt(0, 59)
	parseSecond = parseInt(0, 60)
)

var roles = [numRoles]roleInfo{
	Ignore:  {name: "ignore", field: fieldNone},
	Version: {name: "version", field: fieldNone},

	StartYear4:     {"startYear4", fieldYear, startSide, parseYear4},
	StartYear2:     {"startYear2", fieldYear, startSide, parseYear2},
	StartMonth:     {"startMonth", fieldMonth, startSide, parseMonth},
	StartMonthName: {"startMonthName", fieldMonth, startSide, parseMonthName},
	StartDay:       {"startDay", fieldDay, startSide, parseDay},
	StartDayOfYear: {"startDayOfYear", fieldDayOfYear, startSide, parseDOY},
	StartHour:      {"startHour", fieldHour, startSide, parseHour},
	StartMinute:    {"startMinute", fieldMinute, startSide, parseMinute},
	StartSecond:    {"startSecond", fieldSecond, startSide, parseSecond},

	EndYear4:     {"endYear4", fieldYear, endSide, parseYear4},
	EndYear2:     {"endYear2", fieldYear, endSide, parseYear2},
	EndMonth:     {"endMonth", fieldMonth, endSide, parseMonth},
	EndMonthName: {"endMonthName", fieldMonth, endSide, parseMonthName},
	EndDay:       {"endDay", fieldDay, endSide, parseDay},
	EndDayOfYear: {"endDayOfYear", fieldDayOfYear, endSide, parseDOY},
	EndHour:      {"endHour", fieldHour, endSide, parseHour},
	EndMinute:    {"endMinute", fieldMinute, endSide, parseMinute},
	EndSecond:    {"endSecond", fieldSecond, endSide, parseSecond},
}

func (r FieldRole) valid() bool {
	return r >= 0 && r < numRoles
}

func (r FieldRole) String() string {
	if !r.valid() {
		return "FieldRole(" + strconv.Itoa(int(r)) + ")"
	}
	return roles[r].name
}

// IsTime reports whether the role sets a calendar field.
func (r FieldRole) IsTime() bool {
	return r.valid() && roles[r].field != fieldNone
}

// IsEnd reports whether the role sets a field of the end instant.
func (r FieldRole) IsEnd() bool {
	return r.IsTime() && roles[r].side == endSide
}

// apply parses value and stores it into the struct of the role's side.
func (r FieldRole) apply(value string, start, end *timeStruct) error {
	info := roles[r]
	if info.field == fieldNone {
		return nil
	}
	v, err := info.parse(value)
	if err != nil {
		return err
	}
	ts := start
	if info.side == endSide {
		ts = end
	}
	ts.set(info.field, v)
	return nil
}
