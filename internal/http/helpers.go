package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"soldi/internal/core"
)

// userIDHeader carries the authenticated caller's ID, filled in by the
// gateway in front of this service.
const userIDHeader = "X-User-ID"

func callerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(userIDHeader))
}

// parseYearMonth extracts year and month from query parameters, defaulting
// to the current month.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	return year, month
}

// parseDate parses YYYY-MM-DD.
func parseDate(dateStr string) (core.Date, error) {
	parsed, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.DateOf(parsed), nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
