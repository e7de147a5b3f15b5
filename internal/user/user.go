package user

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrCompanyNotFound    = errors.New("company not found")
)

type User struct {
	ID             uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	PasswordHash   string
	CompanyID      *uuid.UUID
	TransactionIDs []uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	return "invalid user: " + strings.Join(parts, "; ")
}
