package core

import "testing"

func TestClassifyTrend(t *testing.T) {
	cases := []struct {
		name     string
		current  int64
		previous int64
		want     TrendDirection
	}{
		{"zero previous is stable", 5000, 0, TrendStable},
		{"both zero", 0, 0, TrendStable},
		{"clear increase", 13000, 10000, TrendUp},
		{"clear decrease", 7000, 10000, TrendDown},
		{"inside band up", 10100, 10000, TrendStable},
		{"inside band down", 9900, 10000, TrendStable},
		{"just outside band up", 10300, 10000, TrendUp},
		{"just outside band down", 9700, 10000, TrendDown},
		{"dropped to zero", 0, 10000, TrendDown},
	}
	for _, tc := range cases {
		got := ClassifyTrend(Money{Cents: tc.current}, Money{Cents: tc.previous})
		if got.Direction != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got.Direction, tc.want)
		}
	}
}

func TestClassifyTrendChangePercent(t *testing.T) {
	tr := ClassifyTrend(Money{Cents: 15000}, Money{Cents: 10000})
	if tr.ChangePercent != 50 {
		t.Fatalf("got %v, want 50", tr.ChangePercent)
	}
	tr = ClassifyTrend(Money{Cents: 5000}, Money{Cents: 10000})
	if tr.ChangePercent != -50 {
		t.Fatalf("got %v, want -50", tr.ChangePercent)
	}
	tr = ClassifyTrend(Money{Cents: 5000}, Money{Cents: 0})
	if tr.ChangePercent != 0 {
		t.Fatalf("zero previous should report 0%%, got %v", tr.ChangePercent)
	}
}
