package http

import (
	"time"

	"soldi/internal/core"
)

// Request payloads.

type signupRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Persona string `json:"persona"`
}

type createAccountRequest struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	InitialBalance string `json:"initial_balance"`
}

type createCategoryRequest struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Color  string `json:"color"`
	Icon   string `json:"icon"`
	Family bool   `json:"family"`
}

type createTransactionRequest struct {
	AccountID  string `json:"account_id"`
	CategoryID string `json:"category_id"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Note       string `json:"note"`
}

type budgetRequest struct {
	CategoryID string  `json:"category_id"`
	Amount     string  `json:"amount"`
	Period     string  `json:"period"`
	Threshold  float64 `json:"threshold"`
	Family     bool    `json:"family"`
}

type createFamilyRequest struct {
	Name string `json:"name"`
}

type joinFamilyRequest struct {
	InviteCode string `json:"invite_code"`
}

// Response payloads. Amounts travel as cents plus a formatted string so
// clients do no decimal math.

type moneyResponse struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func toMoney(m core.Money) moneyResponse {
	return moneyResponse{Cents: m.Cents, Formatted: m.String()}
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Persona   string    `json:"persona"`
	FamilyID  string    `json:"family_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUser(u core.UserProfile) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Persona:   u.Persona,
		FamilyID:  u.FamilyID,
		CreatedAt: u.CreatedAt,
	}
}

type personaResponse struct {
	Name       string             `json:"name"`
	Label      string             `json:"label"`
	Categories []categoryResponse `json:"categories"`
}

type accountResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Balance  *moneyResponse `json:"balance,omitempty"`
	Archived bool           `json:"archived"`
}

func toAccount(a core.Account) accountResponse {
	return accountResponse{
		ID:       a.ID,
		Name:     a.Name,
		Kind:     string(a.Kind),
		Archived: a.Archived,
	}
}

type categoryResponse struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Color    string `json:"color,omitempty"`
	Icon     string `json:"icon,omitempty"`
	FamilyID string `json:"family_id,omitempty"`
}

func toCategory(c core.Category) categoryResponse {
	return categoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		Kind:     string(c.Kind),
		Color:    c.Color,
		Icon:     c.Icon,
		FamilyID: c.FamilyID,
	}
}

type transactionResponse struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	AccountID  string        `json:"account_id"`
	CategoryID string        `json:"category_id"`
	Kind       string        `json:"kind"`
	Amount     moneyResponse `json:"amount"`
	Date       string        `json:"date"`
	Note       string        `json:"note,omitempty"`
}

func toTransaction(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		UserID:     t.UserID,
		AccountID:  t.AccountID,
		CategoryID: t.CategoryID,
		Kind:       string(t.Kind),
		Amount:     toMoney(t.Amount),
		Date:       t.Date.Format("2006-01-02"),
		Note:       t.Note,
	}
}

type budgetResponse struct {
	ID         string        `json:"id"`
	CategoryID string        `json:"category_id,omitempty"`
	FamilyID   string        `json:"family_id,omitempty"`
	Amount     moneyResponse `json:"amount"`
	Period     string        `json:"period"`
	Threshold  float64       `json:"threshold"`
}

func toBudget(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		FamilyID:   b.FamilyID,
		Amount:     toMoney(b.Amount),
		Period:     string(b.Period),
		Threshold:  b.Threshold,
	}
}

type progressResponse struct {
	BudgetID    string        `json:"budget_id"`
	WindowStart string        `json:"window_start"`
	WindowEnd   string        `json:"window_end"`
	Spent       moneyResponse `json:"spent"`
	Amount      moneyResponse `json:"amount"`
	Progress    float64       `json:"progress"`
	State       string        `json:"state"`
	Remaining   moneyResponse `json:"remaining"`
	TxCount     int           `json:"tx_count"`
}

func toProgress(p core.BudgetProgress) progressResponse {
	return progressResponse{
		BudgetID:    p.BudgetID,
		WindowStart: p.Window.Start.Format("2006-01-02"),
		WindowEnd:   p.Window.End.Format("2006-01-02"),
		Spent:       toMoney(p.Spent),
		Amount:      toMoney(p.Amount),
		Progress:    p.Progress,
		State:       string(p.State),
		Remaining:   toMoney(p.Remaining),
		TxCount:     p.TxCount,
	}
}

type trendResponse struct {
	Direction     string        `json:"direction"`
	Current       moneyResponse `json:"current"`
	Previous      moneyResponse `json:"previous"`
	ChangePercent float64       `json:"change_percent"`
}

func toTrend(t core.Trend) trendResponse {
	return trendResponse{
		Direction:     string(t.Direction),
		Current:       toMoney(t.Current),
		Previous:      toMoney(t.Previous),
		ChangePercent: t.ChangePercent,
	}
}

type categoryAmountResponse struct {
	CategoryID string        `json:"category_id"`
	Name       string        `json:"name"`
	Amount     moneyResponse `json:"amount"`
	TxCount    int           `json:"tx_count"`
}

type summaryResponse struct {
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	Income     moneyResponse            `json:"income"`
	Expenses   moneyResponse            `json:"expenses"`
	Net        moneyResponse            `json:"net"`
	ByCategory []categoryAmountResponse `json:"by_category"`
	Trend      trendResponse            `json:"trend"`
}

func toSummary(s core.PeriodSummary) summaryResponse {
	out := summaryResponse{
		Year:     s.Window.Start.Year(),
		Month:    s.Window.Start.Month(),
		Income:   toMoney(s.Income),
		Expenses: toMoney(s.Expenses),
		Net:      toMoney(s.Net),
		Trend:    toTrend(s.Trend),
	}
	for _, c := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryAmountResponse{
			CategoryID: c.CategoryID,
			Name:       c.Name,
			Amount:     toMoney(c.Amount),
			TxCount:    c.TxCount,
		})
	}
	return out
}

type familyMemberResponse struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type familyResponse struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	OwnerID    string                 `json:"owner_id"`
	InviteCode string                 `json:"invite_code,omitempty"`
	Members    []familyMemberResponse `json:"members,omitempty"`
}

// toFamily hides the invite code from plain members; only the owner can
// share or rotate it.
func toFamily(f core.Family, members []core.FamilyMember, callerID string) familyResponse {
	out := familyResponse{
		ID:      f.ID,
		Name:    f.Name,
		OwnerID: f.OwnerID,
	}
	if callerID == f.OwnerID {
		out.InviteCode = f.InviteCode
	}
	for _, m := range members {
		out.Members = append(out.Members, familyMemberResponse{
			UserID:   m.UserID,
			Name:     m.Name,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
		})
	}
	return out
}
