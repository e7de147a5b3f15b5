package company

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("company not found")
	ErrNameTaken = errors.New("company name already taken")
	ErrNameEmpty = errors.New("company name is required")
	ErrNotMember = errors.New("only company members may do this")
)

type Company struct {
	ID        uuid.UUID
	Name      string
	Industry  string
	MemberIDs []uuid.UUID // in join order
	CreatedAt time.Time
}

// Member is a user as seen from the company roster.
type Member struct {
	UserID    uuid.UUID
	FirstName string
	LastName  string
	JoinedAt  time.Time
}

func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}
