package view

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/importer"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

type importStep int

const (
	importPath importStep = iota
	importPreview
	importDone
)

type importParsedMsg struct {
	entries []transaction.ManualEntry
}

type importSavedMsg struct {
	imported int
	rejected int
}

type importErrMsg struct {
	err error
}

// ImportModel reads a bank statement from disk, previews the categorised
// entries and saves them on confirmation.
type ImportModel struct {
	CommonModel
	importService *importer.Service
	txService     *transaction.Service
	userID        uuid.UUID

	step    importStep
	input   textinput.Model
	table   table.Model
	entries []transaction.ManualEntry
	result  importSavedMsg
	err     error
}

func NewImportModel(importService *importer.Service, txService *transaction.Service, userID uuid.UUID) ImportModel {
	ti := textinput.New()
	ti.Placeholder = "/path/to/statement.csv"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Date", Width: 10},
			{Title: "Merchant", Width: 30},
			{Title: "Category", Width: 14},
			{Title: "Amount", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())

	return ImportModel{
		importService: importService,
		txService:     txService,
		userID:        userID,
		input:         ti,
		table:         t,
	}
}

func (m ImportModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.err != nil && m.step == importPath {
				m.err = nil
				return m, nil
			}

			return m, Back
		case "enter":
			switch m.step {
			case importPath:
				return m, m.parseCmd(strings.TrimSpace(m.input.Value()))
			case importDone:
				return m, Back
			}
		case "y":
			if m.step == importPreview {
				return m, m.saveCmd()
			}
		case "n":
			if m.step == importPreview {
				m.step = importPath
				return m, nil
			}
		}
	case importParsedMsg:
		m.entries = msg.entries
		m.table.SetRows(entryRows(msg.entries))
		m.step = importPreview

		return m, nil
	case importSavedMsg:
		m.result = msg
		m.step = importDone

		return m, nil
	case importErrMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd

	switch m.step {
	case importPath:
		m.input, cmd = m.input.Update(msg)
	case importPreview:
		m.table, cmd = m.table.Update(msg)
	}

	return m, cmd
}

func (m ImportModel) parseCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importErrMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := DbCtx()
		defer cancel()

		entries, err := m.importService.Import(ctx, importer.BankCGD, f)
		if err != nil {
			return importErrMsg{err: err}
		}

		return importParsedMsg{entries: entries}
	}
}

func (m ImportModel) saveCmd() tea.Cmd {
	entries := m.entries

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var saved importSavedMsg

		for _, e := range entries {
			if _, err := m.txService.CreateFromManualEntry(ctx, m.userID, e); err != nil {
				saved.rejected++
				continue
			}

			saved.imported++
		}

		return saved
	}
}

func entryRows(entries []transaction.ManualEntry) []table.Row {
	rows := make([]table.Row, 0, len(entries))

	for _, e := range entries {
		var date, amount string
		if e.Date != nil {
			date = FormatDate(*e.Date)
		}

		if e.Amount != nil {
			amount = FormatAmount(*e.Amount)
		}

		rows = append(rows, table.Row{date, e.Merchant, string(e.Category), amount})
	}

	return rows
}

func (m ImportModel) View() string {
	if m.err != nil {
		return errorView(m.err)
	}

	var s string

	switch m.step {
	case importPath:
		s = titleText.Render("Import CGD statement") + "\n\n" + m.input.View() + "\n\n(Enter to read, Esc to back)"
	case importPreview:
		s = fmt.Sprintf("%s\n%d expenses found\n\n%s\n\nSave them? (y/n)",
			titleText.Render("Preview"), len(m.entries), m.table.View())
	case importDone:
		s = fmt.Sprintf("Imported %s transactions, %d rejected.\n\n(Enter to return)",
			activeStyle(fmt.Sprint(m.result.imported)), m.result.rejected)
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(s)
}
