package core

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// trendBand is the relative change below which spending counts as stable.
const trendBand = 0.02

type TrendDirection string

// Trend classifies a current-window total against the previous window.
type Trend struct {
	Direction     TrendDirection
	Current       Money
	Previous      Money
	ChangePercent float64 // signed, 0 when previous is zero
}

// ClassifyTrend compares two period totals. A zero previous total always
// classifies as stable: there is no meaningful baseline to move against.
func ClassifyTrend(current, previous Money) Trend {
	t := Trend{
		Direction: TrendStable,
		Current:   current,
		Previous:  previous,
	}
	if previous.Cents == 0 {
		return t
	}

	change := float64(current.Cents-previous.Cents) / float64(previous.Cents)
	t.ChangePercent = change * 100

	switch {
	case change > trendBand:
		t.Direction = TrendUp
	case change < -trendBand:
		t.Direction = TrendDown
	}
	return t
}
