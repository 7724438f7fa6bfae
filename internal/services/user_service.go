package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"soldi/internal/core"
	"soldi/internal/ledger"
	"soldi/internal/log"
)

// UserService creates profiles and seeds the persona's starter categories
// and a default cash account at signup.
type UserService struct {
	store  ledger.Store
	logger *log.Logger
	now    func() time.Time
}

func NewUserService(store ledger.Store, logger *log.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger.WithComponent(log.ComponentApp),
		now:    time.Now,
	}
}

// Signup creates a profile and seeds the persona bundle. The category batch
// is one transaction: a half-seeded profile never survives.
func (s *UserService) Signup(ctx context.Context, name, email, personaName string) (core.UserProfile, []core.Category, error) {
	persona, err := core.PersonaByName(personaName)
	if err != nil {
		return core.UserProfile{}, nil, err
	}

	u := core.UserProfile{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Persona:   persona.Name,
		CreatedAt: s.now().UTC(),
	}
	if err := u.Validate(); err != nil {
		return core.UserProfile{}, nil, err
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return core.UserProfile{}, nil, fmt.Errorf("create profile: %w", err)
	}

	categories := make([]core.Category, 0, len(persona.Categories))
	for _, c := range persona.Categories {
		c.ID = uuid.NewString()
		c.UserID = u.ID
		categories = append(categories, c)
	}
	if err := s.store.CreateCategories(ctx, categories); err != nil {
		return core.UserProfile{}, nil, fmt.Errorf("seed persona categories: %w", err)
	}

	account := core.Account{
		ID:     uuid.NewString(),
		UserID: u.ID,
		Name:   "Cash",
		Kind:   core.CashAccount,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return core.UserProfile{}, nil, fmt.Errorf("seed default account: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed up",
		log.FieldUserID, u.ID,
		"persona", persona.Name,
		"categories", len(categories))
	return u, categories, nil
}

func (s *UserService) Get(ctx context.Context, id string) (core.UserProfile, error) {
	return s.store.GetUser(ctx, id)
}
