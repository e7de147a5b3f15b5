package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/bonsai/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/bonsai/internal/company"
	companyStore "github.com/MrJamesThe3rd/bonsai/internal/company/store"
	"github.com/MrJamesThe3rd/bonsai/internal/config"
	"github.com/MrJamesThe3rd/bonsai/internal/database"
	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/export"
	"github.com/MrJamesThe3rd/bonsai/internal/importer"
	"github.com/MrJamesThe3rd/bonsai/internal/leaderboard"
	"github.com/MrJamesThe3rd/bonsai/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/bonsai/internal/matching/store"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
	txStore "github.com/MrJamesThe3rd/bonsai/internal/transaction/store"
	"github.com/MrJamesThe3rd/bonsai/internal/user"
	userStore "github.com/MrJamesThe3rd/bonsai/internal/user/store"
)

type View int

const (
	ViewLogin View = iota
	ViewMenu
	ViewFootprint
	ViewLeaderboard
	ViewList
	ViewEntry
	ViewImport
	ViewExport
)

type model struct {
	services view.Services
	baseline emissions.Baseline
	user     *user.User

	currentView View

	loginView       view.LoginModel
	footprintView   view.FootprintModel
	leaderboardView view.LeaderboardModel
	listView        view.ListModel
	entryView       view.EntryModel
	importView      view.ImportModel
	exportView      view.ExportModel
}

func initialModel() (model, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return model{}, fmt.Errorf("loading config: %w", err)
	}

	baseline, err := emissions.ParseBaseline(cfg.Emissions.DefaultBaseline)
	if err != nil {
		return model{}, fmt.Errorf("DEFAULT_BASELINE: %w", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.ConnectionString(), database.PoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return model{}, fmt.Errorf("connecting to database: %w", err)
	}

	if err := database.Migrate(ctx, db); err != nil {
		return model{}, fmt.Errorf("migrating database: %w", err)
	}

	companySvc := company.NewService(companyStore.New(db))
	userSvc := user.NewService(userStore.New(db), companySvc)
	txSvc := transaction.NewService(txStore.New(db), userSvc)
	boardSvc := leaderboard.NewService(companySvc, txSvc)

	services := view.Services{
		Users:        userSvc,
		Transactions: txSvc,
		Leaderboard:  boardSvc,
		Import:       importer.NewService(matching.NewService(matchingStore.New(db))),
		Export:       export.NewService(boardSvc, txSvc),
	}

	return model{
		services:    services,
		baseline:    baseline,
		currentView: ViewLogin,
		loginView:   view.NewLoginModel(services.Users),
	}, nil
}

func (m model) Init() tea.Cmd {
	return m.loginView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			return m.menu(msg)
		}
	case view.LoggedInMsg:
		m.user = msg.User
		m.currentView = ViewMenu

		return m, nil
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewFootprint:
		var newModel tea.Model
		newModel, cmd = m.footprintView.Update(msg)
		m.footprintView = newModel.(view.FootprintModel)
	case ViewLeaderboard:
		var newModel tea.Model
		newModel, cmd = m.leaderboardView.Update(msg)
		m.leaderboardView = newModel.(view.LeaderboardModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewEntry:
		var newModel tea.Model
		newModel, cmd = m.entryView.Update(msg)
		m.entryView = newModel.(view.EntryModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) menu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.services

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1":
		m.currentView = ViewFootprint
		m.footprintView = view.NewFootprintModel(s.Leaderboard, m.user.ID, m.baseline)

		return m, m.footprintView.Init()
	case "2":
		m.currentView = ViewLeaderboard
		m.leaderboardView = view.NewLeaderboardModel(s.Leaderboard, m.user.CompanyID, m.baseline)

		return m, m.leaderboardView.Init()
	case "3":
		m.currentView = ViewList
		m.listView = view.NewListModel(s.Transactions, m.user.ID)

		return m, m.listView.Init()
	case "4":
		m.currentView = ViewEntry
		m.entryView = view.NewEntryModel(s.Transactions, m.user.ID)

		return m, m.entryView.Init()
	case "5":
		m.currentView = ViewImport
		m.importView = view.NewImportModel(s.Import, s.Transactions, m.user.ID)

		return m, m.importView.Init()
	case "6":
		m.currentView = ViewExport
		m.exportView = view.NewExportModel(s.Export, m.user.ID, view.NewPeriodPicker(m.baseline))

		return m, m.exportView.Init()
	}

	return m, nil
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("Bonsai: signed in as %s %s\n\n", m.user.FirstName, m.user.LastName) +
				"1. My Footprint\n" +
				"2. Company Leaderboard\n" +
				"3. Transactions\n" +
				"4. Add Transaction\n" +
				"5. Import Bank Statement\n" +
				"6. Export Report\n\n" +
				"q. Quit",
		)
	case ViewFootprint:
		return m.footprintView.View()
	case ViewLeaderboard:
		return m.leaderboardView.View()
	case ViewList:
		return m.listView.View()
	case ViewEntry:
		return m.entryView.View()
	case ViewImport:
		return m.importView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func main() {
	m, err := initialModel()
	if err != nil {
		slog.Error("failed to start TUI", "error", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
