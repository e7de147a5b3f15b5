package view

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/export"
)

type exportStep int

const (
	exportPicking exportStep = iota
	exportPath
	exportRunning
	exportDone
)

type exportDoneMsg struct {
	path    string
	summary string
}

type exportErrMsg struct {
	err error
}

// ExportModel writes a footprint report for a period to a CSV file.
type ExportModel struct {
	CommonModel
	exportService *export.Service
	userID        uuid.UUID

	step    exportStep
	picker  PeriodPicker
	period  PeriodSelectedMsg
	input   textinput.Model
	spinner spinner.Model
	done    exportDoneMsg
	err     error
}

func NewExportModel(exportService *export.Service, userID uuid.UUID, picker PeriodPicker) ExportModel {
	ti := textinput.New()
	ti.Placeholder = "footprint.csv"
	ti.CharLimit = 256
	ti.Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	return ExportModel{
		exportService: exportService,
		userID:        userID,
		picker:        picker,
		input:         ti,
		spinner:       s,
	}
}

func (m ExportModel) Init() tea.Cmd {
	return nil
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "enter":
			switch m.step {
			case exportPath:
				path := strings.TrimSpace(m.input.Value())
				if path == "" {
					path = m.input.Placeholder
				}

				m.step = exportRunning

				return m, tea.Batch(m.spinner.Tick, m.exportCmd(path))
			case exportDone:
				return m, Back
			}
		}
	case PeriodSelectedMsg:
		m.period = msg
		m.step = exportPath

		return m, m.input.Focus()
	case exportDoneMsg:
		m.done = msg
		m.step = exportDone

		return m, nil
	case exportErrMsg:
		m.err = msg.err
		return m, nil
	case spinner.TickMsg:
		if m.step != exportRunning {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd

	switch m.step {
	case exportPicking:
		m.picker, cmd = m.picker.Update(msg)
	case exportPath:
		m.input, cmd = m.input.Update(msg)
	}

	return m, cmd
}

func (m ExportModel) exportCmd(path string) tea.Cmd {
	period := m.period

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		report, err := m.exportService.Report(ctx, m.userID, period.TimeRange, period.Baseline)
		if err != nil {
			return exportErrMsg{err: err}
		}

		f, err := os.Create(filepath.Clean(path))
		if err != nil {
			return exportErrMsg{err: fmt.Errorf("creating %s: %w", path, err)}
		}
		defer f.Close()

		if err := export.WriteCSV(f, report); err != nil {
			return exportErrMsg{err: err}
		}

		return exportDoneMsg{path: path, summary: export.Summary(report)}
	}
}

func (m ExportModel) View() string {
	if m.err != nil {
		return errorView(m.err)
	}

	var s string

	switch m.step {
	case exportPicking:
		s = titleText.Render("Export footprint") + "\n\n" + m.picker.View()
	case exportPath:
		s = fmt.Sprintf("Export %s to:\n\n%s\n\n(Enter to write, Esc to back)",
			timeRangeLabel(m.period.TimeRange), m.input.View())
	case exportRunning:
		s = fmt.Sprintf("%s Writing report...", m.spinner.View())
	case exportDone:
		s = m.done.summary + "\n" + activeStyle("Saved to "+m.done.path) + "\n\n(Enter to return)"
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(s)
}
