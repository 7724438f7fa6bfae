package core

// CategoryAmount is an expense total aggregated under one category.
type CategoryAmount struct {
	CategoryID string
	Name       string
	Amount     Money
	TxCount    int
}

// PeriodSummary is the dashboard aggregate for one user (or family) and
// one window: totals, per-category breakdown and the trend against the
// previous window.
type PeriodSummary struct {
	Window     Window
	Income     Money
	Expenses   Money
	Net        Money
	ByCategory []CategoryAmount
	Trend      Trend
}

// Summarize folds transactions into a PeriodSummary. The trend field is
// filled by the caller once the previous window's total is known.
func Summarize(w Window, txs []Transaction, categoryNames map[string]string) PeriodSummary {
	s := PeriodSummary{Window: w}
	byCat := make(map[string]*CategoryAmount)
	var order []string

	for _, t := range txs {
		if !w.Contains(t.Date) {
			continue
		}
		switch t.Kind {
		case Income:
			s.Income = s.Income.Add(t.Amount)
		case Expense:
			s.Expenses = s.Expenses.Add(t.Amount)
			ca, ok := byCat[t.CategoryID]
			if !ok {
				ca = &CategoryAmount{
					CategoryID: t.CategoryID,
					Name:       categoryNames[t.CategoryID],
				}
				byCat[t.CategoryID] = ca
				order = append(order, t.CategoryID)
			}
			ca.Amount = ca.Amount.Add(t.Amount)
			ca.TxCount++
		}
	}

	s.Net = s.Income.Sub(s.Expenses)
	for _, id := range order {
		s.ByCategory = append(s.ByCategory, *byCat[id])
	}
	return s
}

// AccountBalance computes an account's balance from its initial amount and
// the transactions recorded against it.
func AccountBalance(a Account, txs []Transaction) Money {
	total := a.InitialCents
	for _, t := range txs {
		if t.AccountID != a.ID {
			continue
		}
		switch t.Kind {
		case Income:
			total += t.Amount.Cents
		case Expense:
			total -= t.Amount.Cents
		}
	}
	return Money{Cents: total}
}
