package company

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=company
type Repository interface {
	CreateCompany(ctx context.Context, c *Company) error
	GetCompany(ctx context.Context, id uuid.UUID) (*Company, error)
	ListCompanies(ctx context.Context) ([]*Company, error)
	// DeleteCompany removes the company and detaches its members.
	DeleteCompany(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, companyID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error
	// SetMembership leaves userID on companyID's roster only, or on none
	// when companyID is nil.
	SetMembership(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) error
	ListMembers(ctx context.Context, companyID uuid.UUID) ([]Member, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, name, industry string) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameEmpty
	}

	c := &Company{
		Name:     name,
		Industry: strings.TrimSpace(industry),
	}

	if err := s.repo.CreateCompany(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Company, error) {
	return s.repo.GetCompany(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Company, error) {
	return s.repo.ListCompanies(ctx)
}

// Delete removes the company on behalf of callerID, who must be on its
// roster. A company nobody belongs to may be deleted by anyone.
func (s *Service) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	members, err := s.repo.ListMembers(ctx, id)
	if err != nil {
		return fmt.Errorf("listing members: %w", err)
	}

	if len(members) > 0 && !slices.ContainsFunc(members, func(m Member) bool { return m.UserID == callerID }) {
		return ErrNotMember
	}

	return s.repo.DeleteCompany(ctx, id)
}

// AddMember puts userID on the roster. Adding an existing member is a no-op.
func (s *Service) AddMember(ctx context.Context, companyID, userID uuid.UUID) error {
	if err := s.repo.AddMember(ctx, companyID, userID); err != nil {
		return fmt.Errorf("adding member: %w", err)
	}

	return nil
}

// RemoveMember takes userID off the roster. Removing a non-member is a no-op.
func (s *Service) RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error {
	if err := s.repo.RemoveMember(ctx, companyID, userID); err != nil {
		return fmt.Errorf("removing member: %w", err)
	}

	return nil
}

// SetMembership makes companyID the only roster userID is on, or takes the
// user off every roster when companyID is nil. Repeating it is a no-op.
func (s *Service) SetMembership(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) error {
	if err := s.repo.SetMembership(ctx, userID, companyID); err != nil {
		return fmt.Errorf("setting membership: %w", err)
	}

	return nil
}

// Members returns the roster in join order.
func (s *Service) Members(ctx context.Context, companyID uuid.UUID) ([]Member, error) {
	return s.repo.ListMembers(ctx, companyID)
}
