// Package matching learns which category a merchant name belongs to.
package matching

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

var (
	ErrEmptyPattern    = errors.New("pattern is required")
	ErrInvalidCategory = errors.New("invalid category")
)

// Mapping says that merchants whose name contains Pattern belong to Category.
type Mapping struct {
	ID        uuid.UUID            `json:"id"`
	Pattern   string               `json:"pattern"`
	Category  transaction.Category `json:"category"`
	CreatedAt time.Time            `json:"createdAt"`
}

type Repository interface {
	// FindCategory returns the category of the longest pattern contained in
	// merchant, or "" when nothing matches.
	FindCategory(ctx context.Context, merchant string) (transaction.Category, error)
	CreateMapping(ctx context.Context, mapping *Mapping) error
	ListMappings(ctx context.Context) ([]*Mapping, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the learned category for merchant. An empty category means
// no mapping matched.
func (s *Service) Suggest(ctx context.Context, merchant string) (transaction.Category, error) {
	merchant = strings.TrimSpace(merchant)
	if merchant == "" {
		return "", nil
	}

	c, err := s.repo.FindCategory(ctx, merchant)
	if err != nil {
		return "", fmt.Errorf("finding category: %w", err)
	}

	return c, nil
}

// Learn remembers that merchants containing pattern belong to category.
func (s *Service) Learn(ctx context.Context, pattern string, category transaction.Category) (*Mapping, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, ErrEmptyPattern
	}

	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	m := &Mapping{Pattern: pattern, Category: category}
	if err := s.repo.CreateMapping(ctx, m); err != nil {
		return nil, fmt.Errorf("creating mapping: %w", err)
	}

	return m, nil
}

func (s *Service) Mappings(ctx context.Context) ([]*Mapping, error) {
	return s.repo.ListMappings(ctx)
}
