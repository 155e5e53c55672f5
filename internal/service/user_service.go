package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"teretnjaci-web/internal/api"

	"github.com/go-playground/validator/v10"
)

// ErrOwnerProtected is returned when an owner account would be changed from the list.
var ErrOwnerProtected = errors.New("owner accounts cannot be changed")

// FieldError is a form validation failure for one field.
type FieldError struct {
	Field   string
	Message string
}

// FormError lists the invalid fields of a submitted form.
type FormError struct {
	Fields []FieldError
}

func (e *FormError) Error() string {
	return fmt.Sprintf("%d invalid field(s)", len(e.Fields))
}

// For returns the message for field, if it is invalid.
func (e *FormError) For(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

var userMessages = map[string]string{
	"username": "Korisničko ime mora imati od 3 do 50 znakova",
	"password": "Lozinka mora imati najmanje 6 znakova",
	"fullName": "Puno ime je obavezno",
	"email":    "Unesite ispravnu email adresu",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so they match the form inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func formError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := &FormError{}
	for _, v := range verrs {
		fe.Fields = append(fe.Fields, FieldError{Field: v.Field(), Message: userMessages[v.Field()]})
	}
	return fe
}

// Users returns all back-office accounts.
func (s *PortalService) Users(ctx context.Context) ([]api.User, error) {
	users, err := s.api.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}

// CreateUser validates and creates an admin account.
func (s *PortalService) CreateUser(ctx context.Context, in api.NewUser) error {
	if err := validate.Struct(in); err != nil {
		return formError(err)
	}
	return s.api.CreateUser(ctx, in)
}

// UpdateUser validates and updates an admin account. Owner accounts are refused.
func (s *PortalService) UpdateUser(ctx context.Context, id int64, in api.UserUpdate) error {
	if err := validate.Struct(in); err != nil {
		return formError(err)
	}
	if _, err := s.editableUser(ctx, id); err != nil {
		return err
	}
	return s.api.UpdateUser(ctx, id, in)
}

// ToggleUserActive flips the active flag of an admin account and returns the updated user.
func (s *PortalService) ToggleUserActive(ctx context.Context, id int64) (*api.User, error) {
	u, err := s.editableUser(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsActive = !u.IsActive
	if err := s.api.UpdateUser(ctx, id, api.UserUpdate{FullName: u.FullName, Email: u.Email, IsActive: u.IsActive}); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes an admin account. Owner accounts are refused.
func (s *PortalService) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.editableUser(ctx, id); err != nil {
		return err
	}
	return s.api.DeleteUser(ctx, id)
}

// User returns one account from the list.
func (s *PortalService) User(ctx context.Context, id int64) (*api.User, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *PortalService) editableUser(ctx context.Context, id int64) (*api.User, error) {
	u, err := s.User(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsOwner() {
		return nil, ErrOwnerProtected
	}
	return u, nil
}
