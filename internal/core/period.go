package core

import (
	"fmt"
	"time"
)

const (
	Weekly  PeriodKind = "weekly"
	Monthly PeriodKind = "monthly"
	Yearly  PeriodKind = "yearly"
)

type PeriodKind string

// Window is a half-open date range [Start, End) a budget is measured over.
type Window struct {
	Start Date
	End   Date
}

func (p PeriodKind) Validate() error {
	switch p {
	case Weekly, Monthly, Yearly:
		return nil
	}
	return fmt.Errorf("%w: invalid period kind", ErrValidation)
}

// WindowFor returns the window of kind p containing ref.
//
// Weekly windows start on Monday. Monthly and yearly windows follow the
// calendar, so shifting by one period moves by a calendar month or year,
// never a fixed number of days.
func (p PeriodKind) WindowFor(ref Date) Window {
	switch p {
	case Weekly:
		// time.Weekday numbers Sunday as 0; normalize to Monday start.
		offset := (int(ref.Weekday()) + 6) % 7
		start := NewDate(ref.Year(), ref.Month(), ref.Day()-offset)
		return Window{Start: start, End: Date{Time: start.AddDate(0, 0, 7)}}
	case Yearly:
		start := NewDate(ref.Year(), 1, 1)
		return Window{Start: start, End: NewDate(ref.Year()+1, 1, 1)}
	default: // Monthly
		start := NewDate(ref.Year(), ref.Month(), 1)
		return Window{Start: start, End: Date{Time: start.AddDate(0, 1, 0)}}
	}
}

// Previous returns the window immediately before w for kind p.
func (p PeriodKind) Previous(w Window) Window {
	switch p {
	case Weekly:
		return Window{
			Start: Date{Time: w.Start.AddDate(0, 0, -7)},
			End:   w.Start,
		}
	case Yearly:
		return Window{
			Start: Date{Time: w.Start.AddDate(-1, 0, 0)},
			End:   w.Start,
		}
	default:
		return Window{
			Start: Date{Time: w.Start.AddDate(0, -1, 0)},
			End:   w.Start,
		}
	}
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d Date) bool {
	return d.In(w.Start, w.End)
}

// MonthWindow is a convenience for dashboard queries keyed by year+month.
func MonthWindow(year, month int) Window {
	start := NewDate(year, month, 1)
	return Window{Start: start, End: Date{Time: start.AddDate(0, 1, 0)}}
}

// Days returns the window length in days.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start.Time) / (24 * time.Hour))
}
