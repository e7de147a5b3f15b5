package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/company"
	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=leaderboard
type Companies interface {
	Get(ctx context.Context, id uuid.UUID) (*company.Company, error)
	Members(ctx context.Context, id uuid.UUID) ([]company.Member, error)
}

type Transactions interface {
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

type Service struct {
	companies Companies
	txs       Transactions
	now       func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(companies Companies, txs Transactions, opts ...Option) *Service {
	s := &Service{companies: companies, txs: txs, now: time.Now}
	for _, o := range opts {
		o(s)
	}

	return s
}

// Build ranks the company's members over the window. The roster and the
// transactions are read separately, so a member who joins in between may be
// missing from one of them.
func (s *Service) Build(ctx context.Context, companyID uuid.UUID, tr emissions.TimeRange, b emissions.Baseline) (*Board, error) {
	c, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}

	members, err := s.companies.Members(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}

	if len(members) == 0 {
		return Rank(c.Name, tr, b, nil)
	}

	start, end := tr.Window(s.now())

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}

	txs, err := s.txs.List(ctx, transaction.ListFilter{UserIDs: ids, StartDate: &start, EndDate: &end})
	if err != nil {
		return nil, fmt.Errorf("listing member transactions: %w", err)
	}

	byUser := make(map[uuid.UUID][]*transaction.Transaction, len(members))
	for _, tx := range emissions.Filter(txs, start, end) {
		byUser[tx.UserID] = append(byUser[tx.UserID], tx)
	}

	stats := make([]MemberStats, 0, len(members))
	for _, m := range members {
		stats = append(stats, MemberStats{
			UserID:    m.UserID,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Stats:     emissions.Aggregate(m.UserID, byUser[m.UserID], b, tr),
		})
	}

	return Rank(c.Name, tr, b, stats)
}

// Footprint is one user's dashboard view of a window.
type Footprint struct {
	TimeRange emissions.TimeRange       `json:"timeRange"`
	Baseline  emissions.Baseline        `json:"baseline"`
	Start     time.Time                 `json:"start"`
	End       time.Time                 `json:"end"`
	Stats     emissions.Stats           `json:"stats"`
	Breakdown []emissions.CategoryShare `json:"breakdown"`
}

func (s *Service) Footprint(ctx context.Context, userID uuid.UUID, tr emissions.TimeRange, b emissions.Baseline) (*Footprint, error) {
	start, end := tr.Window(s.now())

	txs, err := s.txs.List(ctx, transaction.ListFilter{UserIDs: []uuid.UUID{userID}, StartDate: &start, EndDate: &end})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	txs = emissions.Filter(txs, start, end)

	return &Footprint{
		TimeRange: tr,
		Baseline:  b,
		Start:     start,
		End:       end,
		Stats:     emissions.Aggregate(userID, txs, b, tr),
		Breakdown: emissions.Breakdown(txs),
	}, nil
}
