package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
)

var timeRanges = []emissions.TimeRange{
	emissions.OneMonth, emissions.ThreeMonths, emissions.SixMonths, emissions.OneYear,
}

func timeRangeLabel(tr emissions.TimeRange) string {
	switch tr {
	case emissions.OneMonth:
		return "Last month"
	case emissions.ThreeMonths:
		return "Last 3 months"
	case emissions.SixMonths:
		return "Last 6 months"
	case emissions.OneYear:
		return "Last year"
	}

	return string(tr)
}

func baselineLabel(b emissions.Baseline) string {
	if b == emissions.FixedAverage {
		return "fixed average (16 t/year)"
	}

	return "spend proportional"
}

// PeriodSelectedMsg is emitted when the user confirms a period.
type PeriodSelectedMsg struct {
	TimeRange emissions.TimeRange
	Baseline  emissions.Baseline
}

// PeriodPicker selects a time range with the arrow keys and toggles the
// baseline model with tab.
type PeriodPicker struct {
	cursor   int
	baseline emissions.Baseline
}

func NewPeriodPicker(baseline emissions.Baseline) PeriodPicker {
	return PeriodPicker{cursor: 2, baseline: baseline}
}

func (m PeriodPicker) Update(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(timeRanges)-1 {
			m.cursor++
		}
	case "tab":
		if m.baseline == emissions.FixedAverage {
			m.baseline = emissions.SpendProportional
		} else {
			m.baseline = emissions.FixedAverage
		}
	case "enter":
		sel := PeriodSelectedMsg{TimeRange: timeRanges[m.cursor], Baseline: m.baseline}
		return m, func() tea.Msg { return sel }
	}

	return m, nil
}

func (m PeriodPicker) View() string {
	s := "Select period:\n\n"

	for i, tr := range timeRanges {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, timeRangeLabel(tr))
	}

	s += fmt.Sprintf("\nBaseline: %s\n\n(Enter to select, Tab to switch baseline, Esc to back)", activeStyle(baselineLabel(m.baseline)))

	return s
}
