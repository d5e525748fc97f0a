package dates_test

import (
	"testing"
	"time"

	"github.com/gamulti/ga-multi-mcp/internal/dates"
	"github.com/stretchr/testify/require"
)

// Wednesday, 2026-08-19.
var fixedNow = time.Date(2026, 8, 19, 15, 30, 0, 0, time.UTC)

func newParser() *dates.Parser {
	return dates.NewParser(func() time.Time { return fixedNow })
}

func TestParse_Expressions(t *testing.T) {
	p := newParser()

	cases := []struct {
		expr string
		want string
	}{
		{"2026-01-15", "2026-01-15"},
		{"01/15/2026", "2026-01-15"},
		{"today", "2026-08-19"},
		{"Yesterday", "2026-08-18"},
		{"7daysAgo", "2026-08-12"},
		{"7 days ago", "2026-08-12"},
		{"2weeksAgo", "2026-08-05"},
		{"1monthAgo", "2026-07-20"},
		{"this week", "2026-08-17"},
		{"last week", "2026-08-10"},
		{"this month", "2026-08-01"},
		{"last month", "2026-07-01"},
		{"ytd", "2026-01-01"},
		{"last year", "2025-01-01"},
	}

	for _, tc := range cases {
		got, err := p.Parse(tc.expr)
		require.NoError(t, err, "expr %q", tc.expr)
		require.Equal(t, tc.want, got, "expr %q", tc.expr)
	}
}

func TestParse_Invalid(t *testing.T) {
	p := newParser()

	for _, expr := range []string{"", "not a date", "13/45/2026", "2026-99-99"} {
		_, err := p.Parse(expr)
		require.ErrorIs(t, err, dates.ErrUnparseable, "expr %q", expr)
	}
}

func TestParseRange_Validation(t *testing.T) {
	p := newParser()

	r, err := p.ParseRange("7daysAgo", "today")
	require.NoError(t, err)
	require.Equal(t, dates.Range{Start: "2026-08-12", End: "2026-08-19"}, r)

	_, err = p.ParseRange("today", "yesterday")
	require.ErrorIs(t, err, dates.ErrUnparseable)
}

func TestDescribe(t *testing.T) {
	p := newParser()

	cases := []struct {
		r    dates.Range
		want string
	}{
		{dates.Range{Start: "2026-08-19", End: "2026-08-19"}, "Today"},
		{dates.Range{Start: "2026-08-18", End: "2026-08-18"}, "Yesterday"},
		{dates.Range{Start: "2026-08-13", End: "2026-08-19"}, "Last 7 days"},
		{dates.Range{Start: "2026-07-21", End: "2026-08-19"}, "Last 30 days"},
		{dates.Range{Start: "2026-06-01", End: "2026-06-01"}, "June 01, 2026"},
		{dates.Range{Start: "2026-06-01", End: "2026-06-10"}, "Jun 01 - Jun 10, 2026 (10 days)"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, p.Describe(tc.r), "range %+v", tc.r)
	}
}
