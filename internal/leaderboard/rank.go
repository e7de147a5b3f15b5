// Package leaderboard ranks a company's members by emissions reduced.
package leaderboard

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
)

// ErrEmptyCompany is returned, together with an empty-state board, when the
// company has no members to average over.
var ErrEmptyCompany = errors.New("company has no members")

const NoUsersYet = "No users yet"

type MemberStats struct {
	UserID    uuid.UUID
	FirstName string
	LastName  string
	Stats     emissions.Stats
}

type Entry struct {
	UserID            uuid.UUID `json:"userId"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	TotalSpending     float64   `json:"totalSpending"`
	TotalEmissions    float64   `json:"totalEmissions"`
	EmissionsReduced  float64   `json:"emissionsReduced"`
	PercentageReduced string    `json:"percentageReduced"`
	Rank              int       `json:"rank"`
}

type CompanyStats struct {
	TotalEmissionsReduced float64 `json:"totalEmissionsReduced"`
	// AverageReductionPerUser is nil for a company without members.
	AverageReductionPerUser *float64 `json:"averageReductionPerUser"`
	TopPerformer            string   `json:"topPerformer"`
	// BaselineEmissions is the per-member fixed baseline; nil for the
	// spend-proportional model, where every member has their own.
	BaselineEmissions *float64           `json:"baselineEmissions"`
	Baseline          emissions.Baseline `json:"baseline"`
}

type Board struct {
	CompanyName  string              `json:"companyName"`
	TimeRange    emissions.TimeRange `json:"timeRange"`
	TotalUsers   int                 `json:"totalUsers"`
	Leaderboard  []Entry             `json:"leaderboard"`
	CompanyStats CompanyStats        `json:"companyStats"`
}

// Rank orders members by EmissionsReduced, highest first. Equal reductions
// keep their input order and still get distinct ranks 1..N.
func Rank(companyName string, tr emissions.TimeRange, b emissions.Baseline, members []MemberStats) (*Board, error) {
	board := &Board{
		CompanyName: companyName,
		TimeRange:   tr,
		TotalUsers:  len(members),
		Leaderboard: make([]Entry, 0, len(members)),
		CompanyStats: CompanyStats{
			TopPerformer: NoUsersYet,
			Baseline:     b,
		},
	}

	if b == emissions.FixedAverage {
		base := emissions.FixedExpected(tr)
		board.CompanyStats.BaselineEmissions = &base
	}

	if len(members) == 0 {
		return board, ErrEmptyCompany
	}

	sorted := make([]MemberStats, len(members))
	copy(sorted, members)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Stats.EmissionsReduced > sorted[j].Stats.EmissionsReduced
	})

	total := decimal.Zero

	for i, m := range sorted {
		board.Leaderboard = append(board.Leaderboard, Entry{
			UserID:            m.UserID,
			FirstName:         m.FirstName,
			LastName:          m.LastName,
			TotalSpending:     m.Stats.TotalSpending,
			TotalEmissions:    m.Stats.ActualEmissions,
			EmissionsReduced:  m.Stats.EmissionsReduced,
			PercentageReduced: m.Stats.PercentageReduced,
			Rank:              i + 1,
		})

		total = total.Add(decimal.NewFromFloat(m.Stats.EmissionsReduced))
	}

	avg := total.Div(decimal.NewFromInt(int64(len(sorted)))).Round(2).InexactFloat64()

	board.CompanyStats.TotalEmissionsReduced = total.Round(2).InexactFloat64()
	board.CompanyStats.AverageReductionPerUser = &avg
	board.CompanyStats.TopPerformer = sorted[0].FirstName + " " + sorted[0].LastName

	return board, nil
}
