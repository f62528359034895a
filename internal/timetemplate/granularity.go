package timetemplate

import "time"

// Granularity is the width of the finest time field a template captures.
type Granularity int

const (
	Year Granularity = iota
	Month
	Day
	Hour
	Minute
	Second
)

func (g Granularity) String() string {
	switch g {
	case Year:
		return "year"
	case Month:
		return "month"
	case Day:
		return "day"
	case Hour:
		return "hour"
	case Minute:
		return "minute"
	case Second:
		return "second"
	default:
		return "unknown"
	}
}

// Next returns t advanced by one unit of g.
func (g Granularity) Next(t time.Time) time.Time {
	switch g {
	case Year:
		return t.AddDate(1, 0, 0)
	case Month:
		return t.AddDate(0, 1, 0)
	case Day:
		return t.AddDate(0, 0, 1)
	case Hour:
		return t.Add(time.Hour)
	case Minute:
		return t.Add(time.Minute)
	default:
		return t.Add(time.Second)
	}
}

// timeStruct is a broken-down instant filled field by field from a match.
type timeStruct struct {
	values [numFields]int
	has    [numFields]bool
	doy    int
	hasDOY bool
}

func newTimeStruct() timeStruct {
	var ts timeStruct
	ts.values[fieldMonth] = 1
	ts.values[fieldDay] = 1
	return ts
}

func (ts *timeStruct) set(f field, v int) {
	if f == fieldDayOfYear {
		ts.doy = v
		ts.hasDOY = true
		return
	}
	ts.values[f] = v
	ts.has[f] = true
}

// normalize folds day-of-year into month and day.
func (ts *timeStruct) normalize() {
	if !ts.hasDOY {
		return
	}
	t := time.Date(ts.values[fieldYear], time.January, ts.doy, 0, 0, 0, 0, time.UTC)
	ts.values[fieldMonth] = int(t.Month())
	ts.values[fieldDay] = t.Day()
	ts.has[fieldMonth] = true
	ts.has[fieldDay] = true
}

// fillFrom copies every field not explicitly set from other.
func (ts *timeStruct) fillFrom(other *timeStruct) {
	for f := fieldYear; f < numFields; f++ {
		if !ts.has[f] {
			ts.values[f] = other.values[f]
		}
	}
}

func (ts *timeStruct) time() time.Time {
	v := ts.values
	return time.Date(v[fieldYear], time.Month(v[fieldMonth]), v[fieldDay],
		v[fieldHour], v[fieldMinute], v[fieldSecond], 0, time.UTC)
}
