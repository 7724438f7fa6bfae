package core

import "testing"

func TestSummarize(t *testing.T) {
	w := MonthWindow(2025, 6)
	names := map[string]string{"food": "Groceries", "rent": "Housing", "pay": "Salary"}
	txs := []Transaction{
		{Kind: Income, CategoryID: "pay", Amount: Money{Cents: 250000}, Date: NewDate(2025, 6, 1)},
		{Kind: Expense, CategoryID: "food", Amount: Money{Cents: 4000}, Date: NewDate(2025, 6, 3)},
		{Kind: Expense, CategoryID: "food", Amount: Money{Cents: 6000}, Date: NewDate(2025, 6, 20)},
		{Kind: Expense, CategoryID: "rent", Amount: Money{Cents: 90000}, Date: NewDate(2025, 6, 1)},
		{Kind: Expense, CategoryID: "food", Amount: Money{Cents: 9999}, Date: NewDate(2025, 5, 30)}, // outside
	}

	s := Summarize(w, txs, names)
	if s.Income.Cents != 250000 {
		t.Fatalf("income: got %d", s.Income.Cents)
	}
	if s.Expenses.Cents != 100000 {
		t.Fatalf("expenses: got %d", s.Expenses.Cents)
	}
	if s.Net.Cents != 150000 {
		t.Fatalf("net: got %d", s.Net.Cents)
	}
	if len(s.ByCategory) != 2 {
		t.Fatalf("categories: got %d", len(s.ByCategory))
	}
	// First-seen order.
	if s.ByCategory[0].CategoryID != "food" || s.ByCategory[0].Amount.Cents != 10000 || s.ByCategory[0].TxCount != 2 {
		t.Fatalf("food row: %+v", s.ByCategory[0])
	}
	if s.ByCategory[1].Name != "Housing" {
		t.Fatalf("rent row name: %q", s.ByCategory[1].Name)
	}
}

func TestAccountBalance(t *testing.T) {
	acc := Account{ID: "a1", InitialCents: 10000}
	txs := []Transaction{
		{AccountID: "a1", Kind: Income, Amount: Money{Cents: 5000}},
		{AccountID: "a1", Kind: Expense, Amount: Money{Cents: 2000}},
		{AccountID: "a2", Kind: Expense, Amount: Money{Cents: 9999}}, // other account
	}
	if got := AccountBalance(acc, txs).Cents; got != 13000 {
		t.Fatalf("got %d", got)
	}
}

func TestPersonaByName(t *testing.T) {
	p, err := PersonaByName("")
	if err != nil || p.Name != "essential" {
		t.Fatalf("default persona: %v %q", err, p.Name)
	}
	if _, err := PersonaByName("astronaut"); err == nil {
		t.Fatal("expected error for unknown persona")
	}
	for _, p := range Personas() {
		if len(p.Categories) == 0 {
			t.Fatalf("persona %q has no categories", p.Name)
		}
		for _, c := range p.Categories {
			if err := c.Kind.Validate(); err != nil {
				t.Fatalf("persona %q category %q: %v", p.Name, c.Name, err)
			}
		}
	}
}
