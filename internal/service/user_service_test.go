package service

import (
	"context"
	"errors"
	"testing"

	"teretnjaci-web/internal/api"
)

func TestPortalService_CreateUserValidation(t *testing.T) {
	m := &mockPortalAPI{}
	s := NewPortalService(m, nil, nil)

	err := s.CreateUser(context.Background(), api.NewUser{Username: "ab", Password: "secret1", FullName: "Ana", Email: "nije-email"})
	var fe *FormError
	if !errors.As(err, &fe) {
		t.Fatalf("want *FormError; got %v", err)
	}
	if fe.For("username") == "" || fe.For("email") == "" {
		t.Errorf("expected username and email errors, got %+v", fe.Fields)
	}
	if fe.For("password") != "" {
		t.Errorf("password is valid, got %q", fe.For("password"))
	}
	if len(m.createdUsers) != 0 {
		t.Error("invalid input must not reach the API")
	}

	err = s.CreateUser(context.Background(), api.NewUser{Username: "ana", Password: "secret1", FullName: "Ana", Email: "ana@teretnjaci.ba"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.createdUsers) != 1 {
		t.Error("expected the user to be created")
	}
}

func TestPortalService_OwnerIsProtected(t *testing.T) {
	m := &mockPortalAPI{users: []api.User{
		{ID: 1, Username: "vlasnik", Role: api.RoleOwner, IsActive: true},
		{ID: 2, Username: "ana", FullName: "Ana", Email: "ana@teretnjaci.ba", Role: api.RoleAdmin, IsActive: true},
	}}
	s := NewPortalService(m, nil, nil)
	ctx := context.Background()

	if _, err := s.ToggleUserActive(ctx, 1); !errors.Is(err, ErrOwnerProtected) {
		t.Errorf("want ErrOwnerProtected for toggle; got %v", err)
	}
	if err := s.DeleteUser(ctx, 1); !errors.Is(err, ErrOwnerProtected) {
		t.Errorf("want ErrOwnerProtected for delete; got %v", err)
	}
	if err := s.UpdateUser(ctx, 1, api.UserUpdate{FullName: "X", Email: "x@y.ba"}); !errors.Is(err, ErrOwnerProtected) {
		t.Errorf("want ErrOwnerProtected for update; got %v", err)
	}

	u, err := s.ToggleUserActive(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.IsActive {
		t.Error("expected the admin to be deactivated")
	}
	if got := m.updatedUsers[2]; got.IsActive || got.Email != "ana@teretnjaci.ba" {
		t.Errorf("unexpected update payload %+v", got)
	}

	if _, err := s.ToggleUserActive(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound; got %v", err)
	}
}
