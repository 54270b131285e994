package core

import "time"

const (
	PeriodMonthly PeriodType = "monthly"
	PeriodYearly  PeriodType = "yearly"
)

// DefaultMinYear is the business floor for budget periods. It is a
// configurable constant, not a hard rule; config may override it.
const DefaultMinYear = 2020

type PeriodType string

func (t PeriodType) Valid() bool {
	return t == PeriodMonthly || t == PeriodYearly
}

// Period identifies a budget or report window: a (year) for yearly periods,
// a (year, month) for monthly ones. Month is 0 for yearly periods.
type Period struct {
	Type  PeriodType
	Year  int
	Month int
}

func (p Period) Validate(minYear int) error {
	if !p.Type.Valid() {
		return ErrInvalidType
	}
	if p.Year < minYear {
		return ErrInvalidYear
	}
	switch p.Type {
	case PeriodMonthly:
		if p.Month < 1 || p.Month > 12 {
			return ErrInvalidMonth
		}
	case PeriodYearly:
		if p.Month != 0 {
			return ErrInvalidMonth
		}
	}
	return nil
}

// Range returns the inclusive [start, end] calendar-day bounds used to
// filter transactions: first and last day of the month for monthly periods,
// Jan 1 through Dec 31 for yearly ones.
func (p Period) Range() (Date, Date) {
	if p.Type == PeriodYearly {
		return NewDate(p.Year, 1, 1), NewDate(p.Year, 12, 31)
	}
	// Day zero of the next month is the last day of this one.
	last := time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return NewDate(p.Year, p.Month, 1), NewDate(p.Year, p.Month, last)
}

// Contains reports whether the day falls inside the period's range.
func (p Period) Contains(d Date) bool {
	start, end := p.Range()
	return !d.Before(start.Time) && !d.After(end.Time)
}

// PeriodForDate resolves the period a reference date belongs to.
func PeriodForDate(t time.Time, kind PeriodType) Period {
	if kind == PeriodYearly {
		return Period{Type: PeriodYearly, Year: t.Year()}
	}
	return Period{Type: PeriodMonthly, Year: t.Year(), Month: int(t.Month())}
}

// PreviousMonths returns the n trailing *full* monthly periods before the
// reference date, most recent first. The current (partial) month is never
// included; the recommendation engine averages over these windows.
func PreviousMonths(t time.Time, n int) []Period {
	periods := make([]Period, 0, n)
	year, month := t.Year(), int(t.Month())
	for i := 0; i < n; i++ {
		month--
		if month < 1 {
			month = 12
			year--
		}
		periods = append(periods, Period{Type: PeriodMonthly, Year: year, Month: month})
	}
	return periods
}
