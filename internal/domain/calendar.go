package domain

import "time"

type TenureType string

const (
	TenureDays   TenureType = "DAYS"
	TenureMonths TenureType = "MONTHS"
	TenureYears  TenureType = "YEARS"
)

func (t TenureType) Valid() bool {
	switch t {
	case TenureDays, TenureMonths, TenureYears:
		return true
	}
	return false
}

// Date truncates t to midnight UTC. All loan dates are calendar dates.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddTenure converts a tenure into a calendar due date.
func AddTenure(start time.Time, tenureType TenureType, tenureValue int) time.Time {
	start = Date(start)
	switch tenureType {
	case TenureDays:
		return start.AddDate(0, 0, tenureValue)
	case TenureMonths:
		return AddMonths(start, tenureValue)
	case TenureYears:
		return AddMonths(start, tenureValue*12)
	}
	return start
}

// AddMonths moves t by n months and clamps the day to the target month's
// length, so Jan 31 + 1 month is Feb 28 (or 29), never Mar 3.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := DaysInMonth(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AlignToBillingDay snaps candidate to preferredDay within candidate's month,
// clamped to the month length. A clamped date earlier than candidate rolls to
// the following month and is clamped again.
func AlignToBillingDay(candidate time.Time, preferredDay int) time.Time {
	candidate = Date(candidate)
	aligned := clampDay(candidate, preferredDay)
	if aligned.Before(candidate) {
		next := time.Date(candidate.Year(), candidate.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		aligned = clampDay(next, preferredDay)
	}
	return aligned
}

func clampDay(t time.Time, day int) time.Time {
	if last := DaysInMonth(t); day > last {
		day = last
	}
	return time.Date(t.Year(), t.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}
