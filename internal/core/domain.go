package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

const (
	CashAccount AccountKind = "cash"
	BankAccount AccountKind = "bank"
	CardAccount AccountKind = "card"
)

const (
	RoleOwner  FamilyRole = "owner"
	RoleMember FamilyRole = "member"
)

type (
	TransactionKind string

	AccountKind string

	FamilyRole string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	UserProfile struct {
		ID        string
		Name      string
		Email     string
		Persona   string
		FamilyID  string // empty when the user is not part of a family
		CreatedAt time.Time
	}

	Account struct {
		ID           string
		UserID       string
		Name         string
		Kind         AccountKind
		InitialCents int64
		Archived     bool
	}

	Category struct {
		ID       string
		UserID   string // owner; empty for family categories
		FamilyID string
		Name     string
		Kind     TransactionKind
		Color    string // hex, e.g. "#FF9500"
		Icon     string
	}

	Transaction struct {
		ID         string
		UserID     string
		AccountID  string
		CategoryID string
		Kind       TransactionKind
		Amount     Money
		Date       Date
		Note       string
	}

	Family struct {
		ID         string
		Name       string
		OwnerID    string
		InviteCode string
		CreatedAt  time.Time
	}

	FamilyMember struct {
		UserID   string
		FamilyID string
		Name     string
		Role     FamilyRole
		JoinedAt time.Time
	}

	Budget struct {
		ID         string
		UserID     string // empty for family budgets
		FamilyID   string
		CategoryID string // empty means every expense category
		Amount     Money
		Period     PeriodKind
		Threshold  float64 // alert fraction, (0,1]
		CreatedAt  time.Time
	}

	// BudgetSnapshot is the denormalized read model maintained by the
	// snapshot worker: the spent total for one budget and one window.
	BudgetSnapshot struct {
		BudgetID    string
		WindowStart Date
		SpentCents  int64
		TxCount     int64
		ComputedAt  time.Time
	}
)

// Validation sentinels. Handlers translate anything wrapping ErrValidation
// to 422.
var (
	ErrValidation = errors.New("invalid input")

	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidKind      = fmt.Errorf("%w: invalid kind", ErrValidation)
	ErrEmptyName        = fmt.Errorf("%w: empty name", ErrValidation)
	ErrInvalidThreshold = fmt.Errorf("%w: invalid threshold", ErrValidation)
	ErrInvalidRole      = fmt.Errorf("%w: invalid role", ErrValidation)
)

// DefaultThreshold is the alert fraction applied when a budget is created
// without an explicit one.
const DefaultThreshold = 0.8

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to a UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) Day() int   { return d.Time.Day() }
func (d Date) Month() int { return int(d.Time.Month()) }
func (d Date) Year() int  { return d.Time.Year() }

// In reports whether d falls inside the half-open window [start, end).
func (d Date) In(start, end Date) bool {
	return !d.Before(start.Time) && d.Before(end.Time)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (k TransactionKind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return ErrInvalidKind
}

func (k AccountKind) Validate() error {
	switch k {
	case CashAccount, BankAccount, CardAccount:
		return nil
	}
	return ErrInvalidKind
}

func (r FamilyRole) Validate() error {
	switch r {
	case RoleOwner, RoleMember:
		return nil
	}
	return ErrInvalidRole
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return a.Kind.Validate()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 60 {
		return fmt.Errorf("%w: name too long (max 60 characters)", ErrValidation)
	}
	return c.Kind.Validate()
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	// Amounts are unsigned; direction comes from Kind.
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if len(t.Note) > 200 {
		return fmt.Errorf("%w: note too long (max 200 characters)", ErrValidation)
	}
	if t.AccountID == "" {
		return fmt.Errorf("%w: missing account", ErrValidation)
	}
	if t.CategoryID == "" {
		return fmt.Errorf("%w: missing category", ErrValidation)
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if err := b.Period.Validate(); err != nil {
		return err
	}
	if b.Threshold <= 0 || b.Threshold > 1 {
		return ErrInvalidThreshold
	}
	if b.UserID == "" && b.FamilyID == "" {
		return fmt.Errorf("%w: budget needs an owner", ErrValidation)
	}
	return nil
}

func (f Family) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if len(f.Name) > 60 {
		return fmt.Errorf("%w: name too long (max 60 characters)", ErrValidation)
	}
	if f.OwnerID == "" {
		return fmt.Errorf("%w: missing owner", ErrValidation)
	}
	return nil
}

func (u UserProfile) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}
