package core

const (
	BudgetOK        BudgetState = "ok"
	BudgetNearLimit BudgetState = "near_limit"
	BudgetOver      BudgetState = "over"
)

type BudgetState string

// BudgetProgress is the computed position of a budget inside one window.
type BudgetProgress struct {
	BudgetID  string
	Window    Window
	Spent     Money
	Amount    Money
	Progress  float64 // spent/amount clamped to [0,1]
	State     BudgetState
	Remaining Money // never negative
	TxCount   int
}

// ComputeProgress derives the progress record for a budget given the spent
// total already aggregated over the budget's current window.
func ComputeProgress(b Budget, w Window, spent Money, txCount int) BudgetProgress {
	p := BudgetProgress{
		BudgetID: b.ID,
		Window:   w,
		Spent:    spent,
		Amount:   b.Amount,
		TxCount:  txCount,
		State:    BudgetOK,
	}

	// Zero-allowance guard: any spend on a zero budget is over it.
	if b.Amount.Cents <= 0 {
		if spent.Cents > 0 {
			p.Progress = 1
			p.State = BudgetOver
		}
		return p
	}

	ratio := float64(spent.Cents) / float64(b.Amount.Cents)
	p.Progress = ratio
	if p.Progress > 1 {
		p.Progress = 1
	}
	if p.Progress < 0 {
		p.Progress = 0
	}

	switch {
	case spent.Cents > b.Amount.Cents:
		p.State = BudgetOver
	case ratio >= b.Threshold:
		p.State = BudgetNearLimit
	}

	if rem := b.Amount.Cents - spent.Cents; rem > 0 {
		p.Remaining = Money{Cents: rem}
	}
	return p
}

// SpentInWindow sums the expense transactions that count against budget b
// inside window w. Family budgets match any member's transactions, so the
// caller passes whatever population applies; the filter here is kind,
// window and category scope.
func SpentInWindow(b Budget, w Window, txs []Transaction) (Money, int) {
	var total int64
	var count int
	for _, t := range txs {
		if t.Kind != Expense {
			continue
		}
		if !w.Contains(t.Date) {
			continue
		}
		if b.CategoryID != "" && t.CategoryID != b.CategoryID {
			continue
		}
		total += t.Amount.Cents
		count++
	}
	return Money{Cents: total}, count
}
