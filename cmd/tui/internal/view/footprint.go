package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/leaderboard"
)

type footprintStep int

const (
	footprintPicking footprintStep = iota
	footprintLoading
	footprintShowing
	footprintError
)

type footprintLoadedMsg struct {
	fp *leaderboard.Footprint
}

type footprintErrMsg struct {
	err error
}

type FootprintModel struct {
	CommonModel
	footprints *leaderboard.Service
	userID     uuid.UUID

	step    footprintStep
	picker  PeriodPicker
	spinner spinner.Model
	fp      *leaderboard.Footprint
	err     error
}

func NewFootprintModel(footprints *leaderboard.Service, userID uuid.UUID, baseline emissions.Baseline) FootprintModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	return FootprintModel{
		footprints: footprints,
		userID:     userID,
		picker:     NewPeriodPicker(baseline),
		spinner:    s,
	}
}

func (m FootprintModel) Init() tea.Cmd {
	return nil
}

func (m FootprintModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			if m.step == footprintShowing || m.step == footprintError {
				m.step = footprintPicking
				return m, nil
			}

			return m, Back
		}
	case PeriodSelectedMsg:
		m.step = footprintLoading
		return m, tea.Batch(m.spinner.Tick, m.loadCmd(msg.TimeRange, msg.Baseline))
	case footprintLoadedMsg:
		m.step = footprintShowing
		m.fp = msg.fp

		return m, nil
	case footprintErrMsg:
		m.step = footprintError
		m.err = msg.err

		return m, nil
	case spinner.TickMsg:
		if m.step != footprintLoading {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	if m.step == footprintPicking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m FootprintModel) loadCmd(tr emissions.TimeRange, b emissions.Baseline) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		fp, err := m.footprints.Footprint(ctx, m.userID, tr, b)
		if err != nil {
			return footprintErrMsg{err: err}
		}

		return footprintLoadedMsg{fp: fp}
	}
}

func (m FootprintModel) View() string {
	switch m.step {
	case footprintLoading:
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("%s Calculating footprint...", m.spinner.View()))
	case footprintError:
		return errorView(m.err)
	case footprintShowing:
		return lipgloss.NewStyle().Padding(1, 2).Render(renderFootprint(m.fp))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(titleText.Render("Your footprint") + "\n\n" + m.picker.View())
}

func renderFootprint(fp *leaderboard.Footprint) string {
	var b strings.Builder

	b.WriteString(titleText.Render(fmt.Sprintf("Footprint: %s", timeRangeLabel(fp.TimeRange))))
	fmt.Fprintf(&b, "\n%s to %s, %s baseline\n\n", FormatDate(fp.Start), FormatDate(fp.End), baselineLabel(fp.Baseline))

	fmt.Fprintf(&b, "Spending:   %s\n", FormatAmount(fp.Stats.TotalSpending))
	fmt.Fprintf(&b, "Actual:     %s\n", FormatKg(fp.Stats.ActualEmissions))
	fmt.Fprintf(&b, "Expected:   %s\n", FormatKg(fp.Stats.ExpectedEmissions))
	fmt.Fprintf(&b, "Reduced:    %s (%s%%)\n\n", activeStyle(FormatKg(fp.Stats.EmissionsReduced)), fp.Stats.PercentageReduced)

	b.WriteString("Breakdown:\n")

	for _, share := range fp.Breakdown {
		bar := strings.Repeat("#", share.Percentage/4)
		fmt.Fprintf(&b, "  %-13s %3d%% %-25s %s\n", share.Category, share.Percentage,
			lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render(bar), FormatKg(share.Emissions))
	}

	b.WriteString(lipgloss.NewStyle().Foreground(muted).Render("\n(Esc to pick another period)"))

	return b.String()
}
