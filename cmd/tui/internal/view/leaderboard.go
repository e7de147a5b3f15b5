package view

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/leaderboard"
)

var errNoCompany = errors.New("you are not a member of any company")

type boardLoadedMsg struct {
	board *leaderboard.Board
}

type boardErrMsg struct {
	err error
}

type LeaderboardModel struct {
	CommonModel
	boards    *leaderboard.Service
	companyID *uuid.UUID

	picking bool
	picker  PeriodPicker
	table   table.Model
	board   *leaderboard.Board
	err     error
}

func NewLeaderboardModel(boards *leaderboard.Service, companyID *uuid.UUID, baseline emissions.Baseline) LeaderboardModel {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Name", Width: 24},
		{Title: "Spending", Width: 12},
		{Title: "CO2", Width: 12},
		{Title: "Reduced", Width: 12},
		{Title: "%", Width: 7},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())

	return LeaderboardModel{
		boards:    boards,
		companyID: companyID,
		picking:   true,
		picker:    NewPeriodPicker(baseline),
		table:     t,
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(muted).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	return s
}

func (m LeaderboardModel) Init() tea.Cmd {
	return nil
}

func (m LeaderboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			if !m.picking {
				m.picking = true
				m.err = nil

				return m, nil
			}

			return m, Back
		}
	case PeriodSelectedMsg:
		m.picking = false
		return m, m.loadCmd(msg.TimeRange, msg.Baseline)
	case boardLoadedMsg:
		m.board = msg.board
		m.table.SetRows(boardRows(msg.board))

		return m, nil
	case boardErrMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	if m.picking {
		m.picker, cmd = m.picker.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}

	return m, cmd
}

func (m LeaderboardModel) loadCmd(tr emissions.TimeRange, b emissions.Baseline) tea.Cmd {
	return func() tea.Msg {
		if m.companyID == nil {
			return boardErrMsg{err: errNoCompany}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		board, err := m.boards.Build(ctx, *m.companyID, tr, b)
		if err != nil && !errors.Is(err, leaderboard.ErrEmptyCompany) {
			return boardErrMsg{err: err}
		}

		return boardLoadedMsg{board: board}
	}
}

func boardRows(board *leaderboard.Board) []table.Row {
	rows := make([]table.Row, 0, len(board.Leaderboard))

	for _, e := range board.Leaderboard {
		rows = append(rows, table.Row{
			strconv.Itoa(e.Rank),
			e.FirstName + " " + e.LastName,
			FormatAmount(e.TotalSpending),
			FormatKg(e.TotalEmissions),
			FormatKg(e.EmissionsReduced),
			e.PercentageReduced,
		})
	}

	return rows
}

func (m LeaderboardModel) View() string {
	if m.picking {
		return lipgloss.NewStyle().Padding(1, 2).Render(titleText.Render("Company leaderboard") + "\n\n" + m.picker.View())
	}

	if m.err != nil {
		return errorView(m.err)
	}

	if m.board == nil {
		return lipgloss.NewStyle().Padding(2).Render("Loading leaderboard...")
	}

	stats := m.board.CompanyStats
	header := fmt.Sprintf("%s: %s (%d members)\nTotal reduced: %s  Top performer: %s\n\n",
		m.board.CompanyName, timeRangeLabel(m.board.TimeRange), m.board.TotalUsers,
		activeStyle(FormatKg(stats.TotalEmissionsReduced)), stats.TopPerformer)

	return lipgloss.NewStyle().Padding(1, 2).Render(
		titleText.Render("Leaderboard") + "\n" + header + m.table.View() + "\n\n(Esc to back)",
	)
}
