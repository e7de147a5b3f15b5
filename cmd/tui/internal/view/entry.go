package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

type entrySavedMsg struct {
	tx *transaction.Transaction
}

type entryErrMsg struct {
	err error
}

// EntryModel records a transaction by hand. Emissions are estimated from the
// amount and category.
type EntryModel struct {
	CommonModel
	txService *transaction.Service
	userID    uuid.UUID

	form     *huh.Form
	merchant string
	amount   string
	category transaction.Category
	date     string

	saving bool
	saved  *transaction.Transaction
	err    error
}

func NewEntryModel(txService *transaction.Service, userID uuid.UUID) EntryModel {
	m := EntryModel{
		txService: txService,
		userID:    userID,
		category:  transaction.CategoryOther,
		date:      FormatDate(time.Now()),
	}
	m.form = m.buildForm()

	return m
}

func (m *EntryModel) buildForm() *huh.Form {
	options := make([]huh.Option[transaction.Category], 0, len(transaction.Categories))
	for _, c := range transaction.Categories {
		options = append(options, huh.NewOption(string(c), c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Merchant").
				Value(&m.merchant),
			huh.NewInput().
				Title("Amount").
				Value(&m.amount).
				Validate(func(s string) error {
					if _, err := parseAmount(s); err != nil {
						return err
					}
					return nil
				}),
			huh.NewSelect[transaction.Category]().
				Title("Category").
				Options(options...).
				Value(&m.category),
			huh.NewInput().
				Title("Date (YYYY-MM-DD)").
				Value(&m.date).
				Validate(func(s string) error {
					_, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
					return err
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, errors.New("enter a number")
	}

	if v < 0 {
		return 0, errors.New("amount cannot be negative")
	}

	return v, nil
}

func (m EntryModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m EntryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return m, Back
		}

		if m.saved != nil || m.err != nil {
			if msg.String() == "enter" {
				return m, Back
			}

			return m, nil
		}
	case entrySavedMsg:
		m.saved = msg.tx
		return m, nil
	case entryErrMsg:
		m.err = msg.err
		return m, nil
	}

	if m.saved != nil || m.err != nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted && !m.saving {
		m.saving = true
		return m, m.saveCmd()
	}

	return m, cmd
}

func (m EntryModel) saveCmd() tea.Cmd {
	amount, _ := parseAmount(m.amount)
	date, _ := time.Parse(time.DateOnly, strings.TrimSpace(m.date))
	entry := transaction.ManualEntry{
		Merchant: strings.TrimSpace(m.merchant),
		Amount:   &amount,
		Category: m.category,
		Date:     &date,
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		tx, err := m.txService.CreateFromManualEntry(ctx, m.userID, entry)
		if err != nil {
			return entryErrMsg{err: err}
		}

		return entrySavedMsg{tx: tx}
	}
}

func (m EntryModel) View() string {
	if m.err != nil {
		return errorView(m.err)
	}

	if m.saved != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf(
			"Saved %s: %s, %s\n\n(Enter to return)",
			m.saved.Merchant, FormatAmount(m.saved.Amount), activeStyle(FormatKg(m.saved.CO2Emissions)),
		))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(titleText.Render("New transaction") + "\n\n" + m.form.View())
}
