package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

type listLoadedMsg struct {
	txs []*transaction.Transaction
}

type listErrMsg struct {
	err error
}

type ListModel struct {
	CommonModel
	txService *transaction.Service
	userID    uuid.UUID

	table  table.Model
	txs    []*transaction.Transaction
	status string
	err    error
}

func NewListModel(txService *transaction.Service, userID uuid.UUID) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Merchant", Width: 26},
		{Title: "Category", Width: 14},
		{Title: "Amount", Width: 10},
		{Title: "CO2", Width: 11},
		{Title: "Receipt", Width: 7},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	return ListModel{
		txService: txService,
		userID:    userID,
		table:     t,
	}
}

func (m ListModel) Init() tea.Cmd {
	return m.loadCmd
}

func (m ListModel) loadCmd() tea.Msg {
	ctx, cancel := DbCtx()
	defer cancel()

	txs, err := m.txService.List(ctx, transaction.ListFilter{UserIDs: []uuid.UUID{m.userID}})
	if err != nil {
		return listErrMsg{err: err}
	}

	return listLoadedMsg{txs: txs}
}

func (m ListModel) deleteCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.txService.Delete(ctx, m.userID, id); err != nil {
			return listErrMsg{err: err}
		}

		return m.loadCmd()
	}
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listLoadedMsg:
		m.txs = msg.txs
		m.table.SetRows(transactionRows(msg.txs))
		m.status = fmt.Sprintf("%d transactions", len(msg.txs))

		return m, nil
	case listErrMsg:
		m.err = msg.err
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return m, Back
		case "d", "delete":
			cursor := m.table.Cursor()
			if cursor < 0 || cursor >= len(m.txs) {
				return m, nil
			}

			m.status = "Deleting..."

			return m, m.deleteCmd(m.txs[cursor].ID)
		case "r":
			return m, m.loadCmd
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func transactionRows(txs []*transaction.Transaction) []table.Row {
	rows := make([]table.Row, 0, len(txs))

	for _, tx := range txs {
		receipt := ""
		if tx.ReceiptUploaded {
			receipt = "yes"
		}

		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			tx.Merchant,
			string(tx.Category),
			FormatAmount(tx.Amount),
			FormatKg(tx.CO2Emissions),
			receipt,
		})
	}

	return rows
}

func (m ListModel) View() string {
	if m.err != nil {
		return errorView(m.err)
	}

	help := lipgloss.NewStyle().Foreground(muted).Render("(d to delete, r to reload, Esc to back)")

	return lipgloss.NewStyle().Padding(1, 2).Render(
		titleText.Render("Transactions") + "\n" + m.status + "\n\n" + m.table.View() + "\n\n" + help,
	)
}
