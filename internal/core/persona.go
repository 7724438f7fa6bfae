package core

import "fmt"

// A Persona is a preset bundle of default categories applied at signup.
type Persona struct {
	Name       string
	Label      string
	Categories []Category
}

var personas = []Persona{
	{
		Name:  "essential",
		Label: "Essential",
		Categories: []Category{
			{Name: "Salary", Kind: Income, Color: "#34C759", Icon: "banknote"},
			{Name: "Groceries", Kind: Expense, Color: "#FF9500", Icon: "cart"},
			{Name: "Housing", Kind: Expense, Color: "#5856D6", Icon: "house"},
			{Name: "Transport", Kind: Expense, Color: "#007AFF", Icon: "bus"},
			{Name: "Other", Kind: Expense, Color: "#8E8E93", Icon: "ellipsis"},
		},
	},
	{
		Name:  "family",
		Label: "Family",
		Categories: []Category{
			{Name: "Salary", Kind: Income, Color: "#34C759", Icon: "banknote"},
			{Name: "Groceries", Kind: Expense, Color: "#FF9500", Icon: "cart"},
			{Name: "Housing", Kind: Expense, Color: "#5856D6", Icon: "house"},
			{Name: "Kids", Kind: Expense, Color: "#FF2D55", Icon: "figure.and.child"},
			{Name: "Health", Kind: Expense, Color: "#32ADE6", Icon: "cross.case"},
			{Name: "Transport", Kind: Expense, Color: "#007AFF", Icon: "car"},
			{Name: "Leisure", Kind: Expense, Color: "#AF52DE", Icon: "gamecontroller"},
		},
	},
	{
		Name:  "student",
		Label: "Student",
		Categories: []Category{
			{Name: "Allowance", Kind: Income, Color: "#34C759", Icon: "banknote"},
			{Name: "Food", Kind: Expense, Color: "#FF9500", Icon: "fork.knife"},
			{Name: "Books", Kind: Expense, Color: "#5856D6", Icon: "book"},
			{Name: "Transport", Kind: Expense, Color: "#007AFF", Icon: "tram"},
			{Name: "Going out", Kind: Expense, Color: "#AF52DE", Icon: "party.popper"},
		},
	},
	{
		Name:  "freelancer",
		Label: "Freelancer",
		Categories: []Category{
			{Name: "Invoices", Kind: Income, Color: "#34C759", Icon: "doc.text"},
			{Name: "Taxes", Kind: Expense, Color: "#FF3B30", Icon: "percent"},
			{Name: "Equipment", Kind: Expense, Color: "#5856D6", Icon: "laptopcomputer"},
			{Name: "Software", Kind: Expense, Color: "#007AFF", Icon: "app.badge"},
			{Name: "Groceries", Kind: Expense, Color: "#FF9500", Icon: "cart"},
			{Name: "Housing", Kind: Expense, Color: "#8E8E93", Icon: "house"},
		},
	},
}

var ErrUnknownPersona = fmt.Errorf("%w: unknown persona", ErrValidation)

// Personas returns the available preset bundles in a stable order.
func Personas() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}

// PersonaByName looks up a preset bundle. Empty name resolves to
// "essential" so signup without a choice still seeds usable categories.
func PersonaByName(name string) (Persona, error) {
	if name == "" {
		name = "essential"
	}
	for _, p := range personas {
		if p.Name == name {
			return p, nil
		}
	}
	return Persona{}, ErrUnknownPersona
}
