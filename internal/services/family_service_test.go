package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"soldi/internal/core"
)

func newFamilyFixture() (*fakeStore, *FamilyService) {
	store := newFakeStore()
	svc := NewFamilyService(store, discardLogger())
	return store, svc
}

func TestFamilyService_Create(t *testing.T) {
	store, svc := newFamilyFixture()
	seedUser(store, "u1", "Ada")

	f, err := svc.Create(context.Background(), "u1", "Lovelace Household")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if f.OwnerID != "u1" {
		t.Errorf("OwnerID = %q, want u1", f.OwnerID)
	}
	if !core.ValidInviteCode(f.InviteCode) {
		t.Errorf("InviteCode %q is not valid", f.InviteCode)
	}
	if store.users["u1"].FamilyID != f.ID {
		t.Error("owner profile should reference the family")
	}
	if m, ok := store.members["u1"]; !ok || m.Role != core.RoleOwner {
		t.Errorf("owner membership = %+v", m)
	}

	t.Run("second family is a conflict", func(t *testing.T) {
		if _, err := svc.Create(context.Background(), "u1", "Another"); !errors.Is(err, core.ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		seedUser(store, "u2", "Grace")
		if _, err := svc.Create(context.Background(), "u2", "  "); !errors.Is(err, core.ErrEmptyName) {
			t.Errorf("error = %v, want ErrEmptyName", err)
		}
	})
}

func TestFamilyService_Join(t *testing.T) {
	store, svc := newFamilyFixture()
	seedUser(store, "owner", "Ada")
	seedUser(store, "joiner", "Grace")

	f, err := svc.Create(context.Background(), "owner", "Household")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("lowercase code with spaces still works", func(t *testing.T) {
		sloppy := "  " + strings.ToLower(f.InviteCode) + " "
		joined, err := svc.Join(context.Background(), "joiner", sloppy)
		if err != nil {
			t.Fatalf("Join() error = %v", err)
		}
		if joined.ID != f.ID {
			t.Errorf("joined family %q, want %q", joined.ID, f.ID)
		}
		if m := store.members["joiner"]; m.Role != core.RoleMember {
			t.Errorf("joiner role = %q, want member", m.Role)
		}
		if store.users["joiner"].FamilyID != f.ID {
			t.Error("joiner profile should reference the family")
		}
	})

	t.Run("already in a family", func(t *testing.T) {
		if _, err := svc.Join(context.Background(), "joiner", f.InviteCode); !errors.Is(err, core.ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})

	t.Run("malformed code", func(t *testing.T) {
		seedUser(store, "u3", "Linus")
		if _, err := svc.Join(context.Background(), "u3", "abc"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		if _, err := svc.Join(context.Background(), "u3", "ZZZZ2222"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestFamilyService_Leave(t *testing.T) {
	store, svc := newFamilyFixture()
	seedUser(store, "owner", "Ada")
	seedUser(store, "member", "Grace")

	f, _ := svc.Create(context.Background(), "owner", "Household")
	if _, err := svc.Join(context.Background(), "member", f.InviteCode); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	t.Run("owner cannot leave", func(t *testing.T) {
		if err := svc.Leave(context.Background(), "owner"); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("member leaves", func(t *testing.T) {
		if err := svc.Leave(context.Background(), "member"); err != nil {
			t.Fatalf("Leave() error = %v", err)
		}
		if store.users["member"].FamilyID != "" {
			t.Error("profile should no longer reference the family")
		}
		if _, ok := store.members["member"]; ok {
			t.Error("membership should be gone")
		}
	})

	t.Run("not in a family", func(t *testing.T) {
		if err := svc.Leave(context.Background(), "member"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestFamilyService_RemoveMember(t *testing.T) {
	store, svc := newFamilyFixture()
	seedUser(store, "owner", "Ada")
	seedUser(store, "member", "Grace")

	f, _ := svc.Create(context.Background(), "owner", "Household")
	if _, err := svc.Join(context.Background(), "member", f.InviteCode); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	t.Run("member cannot evict", func(t *testing.T) {
		if err := svc.RemoveMember(context.Background(), "member", "owner"); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("owner cannot remove self", func(t *testing.T) {
		if err := svc.RemoveMember(context.Background(), "owner", "owner"); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("owner evicts member", func(t *testing.T) {
		if err := svc.RemoveMember(context.Background(), "owner", "member"); err != nil {
			t.Fatalf("RemoveMember() error = %v", err)
		}
		if store.users["member"].FamilyID != "" {
			t.Error("evicted profile should no longer reference the family")
		}
	})
}

func TestFamilyService_RotateInvite(t *testing.T) {
	store, svc := newFamilyFixture()
	seedUser(store, "owner", "Ada")
	seedUser(store, "member", "Grace")

	f, _ := svc.Create(context.Background(), "owner", "Household")
	if _, err := svc.Join(context.Background(), "member", f.InviteCode); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	rotated, err := svc.RotateInvite(context.Background(), "owner")
	if err != nil {
		t.Fatalf("RotateInvite() error = %v", err)
	}
	if rotated.InviteCode == f.InviteCode {
		t.Error("invite code should change")
	}
	if !core.ValidInviteCode(rotated.InviteCode) {
		t.Errorf("new code %q is not valid", rotated.InviteCode)
	}

	t.Run("old code no longer joins", func(t *testing.T) {
		seedUser(store, "u3", "Linus")
		if _, err := svc.Join(context.Background(), "u3", f.InviteCode); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("member cannot rotate", func(t *testing.T) {
		if _, err := svc.RotateInvite(context.Background(), "member"); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})
}

func TestFamilyService_Delete(t *testing.T) {
	store, svc := newFamilyFixture()
	seedUser(store, "owner", "Ada")
	seedUser(store, "member", "Grace")

	f, _ := svc.Create(context.Background(), "owner", "Household")
	if _, err := svc.Join(context.Background(), "member", f.InviteCode); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	t.Run("member cannot delete", func(t *testing.T) {
		if err := svc.Delete(context.Background(), "member"); !errors.Is(err, core.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("owner deletes, every profile is detached", func(t *testing.T) {
		if err := svc.Delete(context.Background(), "owner"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if store.users["owner"].FamilyID != "" || store.users["member"].FamilyID != "" {
			t.Error("profiles should be detached from the deleted family")
		}
		if len(store.members) != 0 {
			t.Errorf("memberships remain: %v", store.members)
		}
	})
}

func TestFamilyService_Get(t *testing.T) {
	store, svc := newFamilyFixture()
	seedUser(store, "owner", "Ada")
	seedUser(store, "member", "Grace")

	f, _ := svc.Create(context.Background(), "owner", "Household")
	if _, err := svc.Join(context.Background(), "member", f.InviteCode); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	got, members, err := svc.Get(context.Background(), "member")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != f.ID {
		t.Errorf("family = %q, want %q", got.ID, f.ID)
	}
	if len(members) != 2 {
		t.Errorf("members = %d, want 2", len(members))
	}
}
