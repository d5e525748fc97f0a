// Package dates parses natural-language date expressions used when querying
// analytics data and normalizes them into GA4-accepted YYYY-MM-DD strings.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseable indicates a date expression could not be interpreted.
var ErrUnparseable = errors.New("unparseable date")

const layout = "2006-01-02"

var (
	isoRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	usRe       = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	daysAgoRe  = regexp.MustCompile(`^(\d+)\s*days?\s*ago$`)
	weeksAgoRe = regexp.MustCompile(`^(\d+)\s*weeks?\s*ago$`)
	// Months are approximated at 30 days, matching what users expect from
	// expressions like "3 months ago" in analytics queries.
	monthsAgoRe = regexp.MustCompile(`^(\d+)\s*months?\s*ago$`)
)

// Parser resolves date expressions relative to an injectable clock.
type Parser struct {
	now func() time.Time
}

// NewParser creates a parser using the given time source (time.Now if nil).
func NewParser(now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{now: now}
}

// Parse resolves a single date expression into YYYY-MM-DD.
//
// Supported: ISO (2024-01-15), US (01/15/2024), today, yesterday, NdaysAgo,
// NweeksAgo, NmonthsAgo, last/this week, last/this month, this year, ytd,
// last year.
func (p *Parser) Parse(expr string) (string, error) {
	if strings.TrimSpace(expr) == "" {
		return "", fmt.Errorf("%w: empty date expression", ErrUnparseable)
	}

	s := strings.ToLower(strings.TrimSpace(expr))
	today := p.now()

	if isoRe.MatchString(s) {
		if _, err := time.Parse(layout, s); err != nil {
			return "", fmt.Errorf("%w: invalid date %q", ErrUnparseable, expr)
		}
		return s, nil
	}

	if m := usRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if parsed.Year() != year || int(parsed.Month()) != month || parsed.Day() != day {
			return "", fmt.Errorf("%w: invalid date %q", ErrUnparseable, expr)
		}
		return parsed.Format(layout), nil
	}

	switch s {
	case "today":
		return today.Format(layout), nil
	case "yesterday":
		return today.AddDate(0, 0, -1).Format(layout), nil
	case "last week", "lastweek":
		startOfWeek := today.AddDate(0, 0, -daysSinceMonday(today))
		return startOfWeek.AddDate(0, 0, -7).Format(layout), nil
	case "this week", "thisweek":
		return today.AddDate(0, 0, -daysSinceMonday(today)).Format(layout), nil
	case "last month", "lastmonth":
		firstOfCurrent := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return firstOfCurrent.AddDate(0, -1, 0).Format(layout), nil
	case "this month", "thismonth":
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).Format(layout), nil
	case "this year", "thisyear", "ytd":
		return time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location()).Format(layout), nil
	case "last year", "lastyear":
		return time.Date(today.Year()-1, 1, 1, 0, 0, 0, 0, today.Location()).Format(layout), nil
	}

	if m := daysAgoRe.FindStringSubmatch(s); m != nil {
		days, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, -days).Format(layout), nil
	}
	if m := weeksAgoRe.FindStringSubmatch(s); m != nil {
		weeks, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, -7*weeks).Format(layout), nil
	}
	if m := monthsAgoRe.FindStringSubmatch(s); m != nil {
		months, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, -30*months).Format(layout), nil
	}

	return "", fmt.Errorf(
		"%w: could not parse %q (supported: YYYY-MM-DD, MM/DD/YYYY, today, yesterday, NdaysAgo, NweeksAgo, NmonthsAgo, last week, last month, this week, this month, ytd)",
		ErrUnparseable, expr)
}

// Range is a resolved start/end date pair in YYYY-MM-DD form.
type Range struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// ParseRange resolves both expressions and validates start <= end.
func (p *Parser) ParseRange(startExpr, endExpr string) (Range, error) {
	start, err := p.Parse(startExpr)
	if err != nil {
		return Range{}, err
	}
	end, err := p.Parse(endExpr)
	if err != nil {
		return Range{}, err
	}

	startDt, _ := time.Parse(layout, start)
	endDt, _ := time.Parse(layout, end)
	if startDt.After(endDt) {
		return Range{}, fmt.Errorf("%w: start date (%s) must be before or equal to end date (%s)",
			ErrUnparseable, start, end)
	}
	return Range{Start: start, End: end}, nil
}

// Describe renders a human-readable label for a resolved range, e.g.
// "Today", "Last 7 days", or "Jan 02 - Feb 03, 2026 (33 days)".
func (p *Parser) Describe(r Range) string {
	startDt, err1 := time.Parse(layout, r.Start)
	endDt, err2 := time.Parse(layout, r.End)
	if err1 != nil || err2 != nil {
		return fmt.Sprintf("%s - %s", r.Start, r.End)
	}

	today := p.now().Truncate(24 * time.Hour)
	days := int(endDt.Sub(startDt).Hours()/24) + 1

	if startDt.Equal(endDt) {
		switch {
		case sameDay(endDt, p.now()):
			return "Today"
		case sameDay(endDt, p.now().AddDate(0, 0, -1)):
			return "Yesterday"
		default:
			return startDt.Format("January 02, 2006")
		}
	}

	if sameDay(endDt, today) || sameDay(endDt, p.now()) {
		switch days {
		case 7, 14, 28, 30, 90:
			return fmt.Sprintf("Last %d days", days)
		}
	}

	return fmt.Sprintf("%s - %s (%d days)",
		startDt.Format("Jan 02"), endDt.Format("Jan 02, 2006"), days)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func daysSinceMonday(t time.Time) int {
	// time.Weekday has Sunday == 0.
	wd := int(t.Weekday())
	if wd == 0 {
		return 6
	}
	return wd - 1
}
