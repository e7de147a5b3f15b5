package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateCompany(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	AppendTransaction(ctx context.Context, userID, txID uuid.UUID) error
	RemoveTransactions(ctx context.Context, userID uuid.UUID, txIDs []uuid.UUID) error
}

// Membership is the company side of the user/company mirror.
type Membership interface {
	AddMember(ctx context.Context, companyID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error
	SetMembership(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) error
}

type Service struct {
	repo    Repository
	members Membership
}

func NewService(repo Repository, members Membership) *Service {
	return &Service{repo: repo, members: members}
}

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)

type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	CompanyID *uuid.UUID
}

// Register creates the user and, when a company is given, puts them on its
// roster. A failed roster write removes the new user again.
func (s *Service) Register(ctx context.Context, reg Registration) (*User, error) {
	u := &User{
		FirstName: strings.TrimSpace(reg.FirstName),
		LastName:  strings.TrimSpace(reg.LastName),
		Email:     strings.ToLower(strings.TrimSpace(reg.Email)),
		CompanyID: reg.CompanyID,
	}

	if err := validate(u, reg.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	u.PasswordHash = hash

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	if u.CompanyID == nil {
		return u, nil
	}

	if err := s.members.AddMember(ctx, *u.CompanyID, u.ID); err != nil {
		if delErr := s.repo.DeleteUser(ctx, u.ID); delErr != nil {
			slog.Error("failed to roll back user after membership failure", "user_id", u.ID, "error", delErr)
		}

		return nil, fmt.Errorf("joining company: %w", err)
	}

	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// ChangeCompany moves the user to companyID, or out of any company when it
// is nil. The rosters are reconciled before the user row is written, so a
// call that failed part way can simply be repeated.
func (s *Service) ChangeCompany(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) (*User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.members.SetMembership(ctx, userID, companyID); err != nil {
		return nil, fmt.Errorf("updating rosters: %w", err)
	}

	if sameCompany(u.CompanyID, companyID) {
		return u, nil
	}

	if err := s.repo.UpdateCompany(ctx, userID, companyID); err != nil {
		return nil, err
	}

	u.CompanyID = companyID

	return u, nil
}

// Delete takes the user off their company roster, then removes the user.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if u.CompanyID != nil {
		if err := s.members.RemoveMember(ctx, *u.CompanyID, id); err != nil {
			return fmt.Errorf("leaving company: %w", err)
		}
	}

	return s.repo.DeleteUser(ctx, id)
}

// AppendTransaction records txID on the user's transaction list.
func (s *Service) AppendTransaction(ctx context.Context, userID, txID uuid.UUID) error {
	return s.repo.AppendTransaction(ctx, userID, txID)
}

// RemoveTransactions drops txIDs from the user's transaction list. Ids not on
// the list are ignored.
func (s *Service) RemoveTransactions(ctx context.Context, userID uuid.UUID, txIDs []uuid.UUID) error {
	if len(txIDs) == 0 {
		return nil
	}

	return s.repo.RemoveTransactions(ctx, userID, txIDs)
}

func validate(u *User, password string) error {
	fields := make(map[string]string)

	if u.FirstName == "" {
		fields["firstName"] = "first name is required"
	}

	if u.LastName == "" {
		fields["lastName"] = "last name is required"
	}

	switch {
	case u.Email == "":
		fields["email"] = "email is required"
	case !emailPattern.MatchString(u.Email):
		fields["email"] = "please enter a valid email"
	}

	if len(password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("password must be at least %d characters long", minPasswordLength)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}

func sameCompany(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
