package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"soldi/internal/core"
	"soldi/internal/ledger"
	"soldi/internal/log"
)

// inviteRetries bounds how often code generation retries on a collision.
const inviteRetries = 5

// FamilyService manages households: creation, invite joins, membership.
// Every multi-row mutation goes through the store's transactional methods.
type FamilyService struct {
	store  ledger.Store
	logger *log.Logger
	now    func() time.Time
}

func NewFamilyService(store ledger.Store, logger *log.Logger) *FamilyService {
	return &FamilyService{
		store:  store,
		logger: logger.WithComponent(log.ComponentFamily),
		now:    time.Now,
	}
}

// Create starts a family with the caller as owner. A user already in a
// family cannot create another one.
func (s *FamilyService) Create(ctx context.Context, userID, name string) (core.Family, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.Family{}, fmt.Errorf("load profile: %w", err)
	}
	if user.FamilyID != "" {
		return core.Family{}, fmt.Errorf("%w: already in a family", core.ErrConflict)
	}

	code, err := core.NewInviteCode()
	if err != nil {
		return core.Family{}, fmt.Errorf("generate invite code: %w", err)
	}

	f := core.Family{
		ID:         uuid.NewString(),
		Name:       name,
		OwnerID:    userID,
		InviteCode: code,
		CreatedAt:  s.now().UTC(),
	}
	if err := f.Validate(); err != nil {
		return core.Family{}, err
	}

	owner := core.FamilyMember{
		UserID:   userID,
		FamilyID: f.ID,
		Name:     user.Name,
		Role:     core.RoleOwner,
		JoinedAt: f.CreatedAt,
	}

	for attempt := 0; ; attempt++ {
		err = s.store.CreateFamily(ctx, f, owner)
		if err == nil {
			break
		}
		// An invite code collision is the only expected conflict here.
		if errors.Is(err, core.ErrConflict) && attempt < inviteRetries {
			if f.InviteCode, err = core.NewInviteCode(); err != nil {
				return core.Family{}, fmt.Errorf("generate invite code: %w", err)
			}
			continue
		}
		return core.Family{}, fmt.Errorf("create family: %w", err)
	}

	s.logger.InfoContext(ctx, "family created",
		log.FieldFamilyID, f.ID,
		log.FieldUserID, userID)
	return f, nil
}

// Join adds the caller to the family behind an invite code.
func (s *FamilyService) Join(ctx context.Context, userID, code string) (core.Family, error) {
	code = core.NormalizeInviteCode(code)
	if !core.ValidInviteCode(code) {
		return core.Family{}, core.ErrNotFound
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.Family{}, fmt.Errorf("load profile: %w", err)
	}
	if user.FamilyID != "" {
		return core.Family{}, fmt.Errorf("%w: already in a family", core.ErrConflict)
	}

	f, err := s.store.GetFamilyByInvite(ctx, code)
	if err != nil {
		return core.Family{}, err
	}

	member := core.FamilyMember{
		UserID:   userID,
		FamilyID: f.ID,
		Name:     user.Name,
		Role:     core.RoleMember,
		JoinedAt: s.now().UTC(),
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		return core.Family{}, err
	}

	s.logger.InfoContext(ctx, "member joined family",
		log.FieldFamilyID, f.ID,
		log.FieldUserID, userID)
	return f, nil
}

// Leave removes the caller from their family. The owner cannot leave;
// they delete the family instead.
func (s *FamilyService) Leave(ctx context.Context, userID string) error {
	f, err := s.familyOf(ctx, userID)
	if err != nil {
		return err
	}
	if f.OwnerID == userID {
		return fmt.Errorf("%w: owner cannot leave, delete the family", core.ErrForbidden)
	}
	return s.store.RemoveMember(ctx, f.ID, userID)
}

// RemoveMember lets the owner evict another member.
func (s *FamilyService) RemoveMember(ctx context.Context, callerID, targetID string) error {
	f, err := s.familyOf(ctx, callerID)
	if err != nil {
		return err
	}
	if f.OwnerID != callerID {
		return core.ErrForbidden
	}
	if targetID == callerID {
		return fmt.Errorf("%w: owner cannot remove themselves", core.ErrForbidden)
	}
	return s.store.RemoveMember(ctx, f.ID, targetID)
}

// RotateInvite invalidates the current invite code and returns a fresh one.
// Owner only.
func (s *FamilyService) RotateInvite(ctx context.Context, userID string) (core.Family, error) {
	f, err := s.familyOf(ctx, userID)
	if err != nil {
		return core.Family{}, err
	}
	if f.OwnerID != userID {
		return core.Family{}, core.ErrForbidden
	}

	for attempt := 0; ; attempt++ {
		code, err := core.NewInviteCode()
		if err != nil {
			return core.Family{}, fmt.Errorf("generate invite code: %w", err)
		}
		err = s.store.UpdateInviteCode(ctx, f.ID, code)
		if err == nil {
			f.InviteCode = code
			break
		}
		if errors.Is(err, core.ErrConflict) && attempt < inviteRetries {
			continue
		}
		return core.Family{}, err
	}

	s.logger.InfoContext(ctx, "invite code rotated", log.FieldFamilyID, f.ID)
	return f, nil
}

// Delete disbands the family, clearing every member's profile. Owner only.
func (s *FamilyService) Delete(ctx context.Context, userID string) error {
	f, err := s.familyOf(ctx, userID)
	if err != nil {
		return err
	}
	if f.OwnerID != userID {
		return core.ErrForbidden
	}
	if err := s.store.DeleteFamily(ctx, f.ID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "family deleted", log.FieldFamilyID, f.ID)
	return nil
}

// Get returns the caller's family and its members.
func (s *FamilyService) Get(ctx context.Context, userID string) (core.Family, []core.FamilyMember, error) {
	f, err := s.familyOf(ctx, userID)
	if err != nil {
		return core.Family{}, nil, err
	}
	members, err := s.store.ListMembers(ctx, f.ID)
	if err != nil {
		return core.Family{}, nil, err
	}
	return f, members, nil
}

func (s *FamilyService) familyOf(ctx context.Context, userID string) (core.Family, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.Family{}, fmt.Errorf("load profile: %w", err)
	}
	if user.FamilyID == "" {
		return core.Family{}, core.ErrNotFound
	}
	return s.store.GetFamily(ctx, user.FamilyID)
}
