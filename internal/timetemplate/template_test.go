package timetemplate

import (
	"errors"
	"testing"
	"time"

	"github.com/koustreak/timefs/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestMatchToRange_StartOnly(t *testing.T) {
	tests := []struct {
		template    string
		name        string
		start       time.Time
		granularity Granularity
	}{
		{"%Y", "2020", utc(2020, 1, 1, 0, 0), Year},
		{"%Y%m", "202002", utc(2020, 2, 1, 0, 0), Month},
		{"%Y%m%d.dat", "20200101.dat", utc(2020, 1, 1, 0, 0), Day},
		{"%Y%m%d%H", "2020010113", utc(2020, 1, 1, 13, 0), Hour},
		{"%Y%m%dT%H%M", "20200101T1305", utc(2020, 1, 1, 13, 5), Minute},
		{"%Y%m%dT%H%M%S", "20200101T130507", time.Date(2020, 1, 1, 13, 5, 7, 0, time.UTC), Second},
		{"%Y%j", "2021032", utc(2021, 2, 1, 0, 0), Day},
		{"%d%b%Y", "05Feb2020", utc(2020, 2, 5, 0, 0), Day},
		{"%d%b%Y", "05FEB2020", utc(2020, 2, 5, 0, 0), Day},
		{"%Y/%Y%m%d.dat", "2020/20200101.dat", utc(2020, 1, 1, 0, 0), Day},
		{"data_%Y%m%d_v%v.cdf", "data_20200101_v1.2.cdf", utc(2020, 1, 1, 0, 0), Day},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			tmpl, err := Compile(tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.granularity, tmpl.Granularity())

			r, err := tmpl.MatchToRange(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.start, r.Start)
			assert.Equal(t, tt.granularity.Next(tt.start), r.End,
				"a start-only template covers exactly one granularity unit")
		})
	}
}

func TestMatchToRange_ExplicitEnd(t *testing.T) {
	tests := []struct {
		template string
		name     string
		start    time.Time
		end      time.Time
	}{
		{"%Y%m%d_%Y%m%d.cdf", "20200101_20200105.cdf", utc(2020, 1, 1, 0, 0), utc(2020, 1, 6, 0, 0)},
		{"%Y%m%d_%d.cdf", "20200101_03.cdf", utc(2020, 1, 1, 0, 0), utc(2020, 1, 4, 0, 0)},
		{"%Y%m%d_%H%M_%H%M", "20200101_1000_1130", utc(2020, 1, 1, 10, 0), utc(2020, 1, 1, 11, 31)},
		{"%Y%j-%j", "2020365-366", utc(2020, 12, 30, 0, 0), utc(2021, 1, 1, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			tmpl, err := Compile(tt.template)
			require.NoError(t, err)

			r, err := tmpl.MatchToRange(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.start, r.Start)
			assert.Equal(t, tt.end, r.End)
		})
	}
}

func TestMatchToRange_TwoDigitYearPivot(t *testing.T) {
	tmpl := MustCompile("%y%m%d")

	r, err := tmpl.MatchToRange("570101")
	require.NoError(t, err)
	assert.Equal(t, 2057, r.Start.Year())

	r, err = tmpl.MatchToRange("580101")
	require.NoError(t, err)
	assert.Equal(t, 1958, r.Start.Year())
}

func TestMatchToRange_DayOfYearNormalization(t *testing.T) {
	r, err := MustCompile("%Y%j").MatchToRange("2021032")
	require.NoError(t, err)
	assert.Equal(t, utc(2021, 2, 1, 0, 0), r.Start)
	assert.Equal(t, utc(2021, 2, 2, 0, 0), r.End)

	r, err = MustCompile("%Y%j").MatchToRange("2020060")
	require.NoError(t, err)
	assert.Equal(t, utc(2020, 2, 29, 0, 0), r.Start, "leap years keep Feb 29")
}

func TestMatchToRange_NoMatch(t *testing.T) {
	_, err := MustCompile("%Y%m%d.dat").MatchToRange("readme.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMatch))
	assert.True(t, errs.IsInvalidArgument(err))
}

func TestMatchToRange_FieldOutOfRange(t *testing.T) {
	_, err := MustCompile("%Y%m").MatchToRange("202013")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidArgument(err))

	_, err = MustCompile("%d%b%Y").MatchToRange("05Foo2020")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidArgument(err))
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{"day without month", "%Y%d"},
		{"month without year", "%m%d"},
		{"hour without day", "%Y%m%H"},
		{"second without minute", "%Y%m%d%H%S"},
		{"no time field", "readme.txt"},
		{"only a version", "data_%v.cdf"},
		{"unknown code", "%Y%q"},
		{"dangling percent", "%Y%"},
		{"adjacent variable-width codes", "%Y_%v%V"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.template)
			require.Error(t, err)
			assert.True(t, errs.IsInvalidArgument(err), "got %v", err)
		})
	}
}

func TestCompile_DayOfYearSatisfiesMonthAndDay(t *testing.T) {
	tmpl, err := Compile("%Y%j%H")
	require.NoError(t, err)
	assert.Equal(t, Hour, tmpl.Granularity())
}

func TestCompile_RepeatedCodeBecomesEndRole(t *testing.T) {
	tmpl := MustCompile("%Y%m_%m")
	assert.Equal(t, []FieldRole{StartYear4, StartMonth, EndMonth}, tmpl.Roles())

	// %d after %j is a different code, so it stays on the start side
	tmpl = MustCompile("%Y%j%d")
	assert.Equal(t, []FieldRole{StartYear4, StartDayOfYear, StartDay}, tmpl.Roles())
}

func TestCompile_LiteralsAreEscaped(t *testing.T) {
	tmpl := MustCompile("a.b+c_%Y(%m)%%.dat")
	assert.True(t, tmpl.Match("a.b+c_2020(01)%.dat"))
	assert.False(t, tmpl.Match("aXb+c_2020(01)%.dat"))
}

func TestNew(t *testing.T) {
	t.Run("group count mismatch", func(t *testing.T) {
		_, err := New(`([0-9]{4})([0-9]{2})`, []FieldRole{StartYear4})
		require.Error(t, err)
		assert.True(t, errs.IsInvalidArgument(err))
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := New(`([0-9]{4})`, []FieldRole{FieldRole(99)})
		require.Error(t, err)
		assert.True(t, errs.IsInvalidArgument(err))
	})

	t.Run("explicit pattern", func(t *testing.T) {
		tmpl, err := New(`data_([0-9]{4})-([0-9]{3})(?:_rev[0-9]+)?\.txt`, []FieldRole{StartYear4, StartDayOfYear})
		require.NoError(t, err)

		r, err := tmpl.MatchToRange("data_2021-032_rev2.txt")
		require.NoError(t, err)
		assert.Equal(t, utc(2021, 2, 1, 0, 0), r.Start)
		assert.Equal(t, Day, tmpl.Granularity())
	})

	t.Run("ignored groups", func(t *testing.T) {
		tmpl, err := New(`([a-z]+)_([0-9]{4})`, []FieldRole{Ignore, StartYear4})
		require.NoError(t, err)
		r, err := tmpl.MatchToRange("ace_1999")
		require.NoError(t, err)
		assert.Equal(t, utc(1999, 1, 1, 0, 0), r.Start)
		assert.Equal(t, utc(2000, 1, 1, 0, 0), r.End)
	})
}

func TestVersion(t *testing.T) {
	tmpl := MustCompile("%Y%m%d_v%v.cdf")
	v, ok := tmpl.Version("20200101_v1.10.cdf")
	require.True(t, ok)
	assert.Equal(t, "1.10", v)

	_, ok = MustCompile("%Y%m%d.cdf").Version("20200101.cdf")
	assert.False(t, ok)
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, 1, CompareVersions("1.10", "1.9"))
	assert.Equal(t, -1, CompareVersions("1", "1.0.1"))
	assert.Equal(t, 0, CompareVersions("2.0", "2"))
	assert.Equal(t, 1, CompareVersions("b", "a"))
}

func TestHasCodes(t *testing.T) {
	assert.True(t, HasCodes("%Y"))
	assert.True(t, HasCodes("data/%Y%m"))
	assert.False(t, HasCodes("data"))
	assert.False(t, HasCodes("100%%"))
}

func TestSegmentPattern(t *testing.T) {
	re, err := SegmentPattern("data")
	require.NoError(t, err)
	assert.True(t, re.MatchString("data"))
	assert.False(t, re.MatchString("data2"))

	re, err = SegmentPattern("%Y%m%d.dat")
	require.NoError(t, err)
	assert.True(t, re.MatchString("20200101.dat"))
}
