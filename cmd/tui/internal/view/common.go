package view

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/bonsai/internal/export"
	"github.com/MrJamesThe3rd/bonsai/internal/importer"
	"github.com/MrJamesThe3rd/bonsai/internal/leaderboard"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
	"github.com/MrJamesThe3rd/bonsai/internal/user"
)

const dbTimeout = 5 * time.Second

// Services are the domain services the screens talk to.
type Services struct {
	Users        *user.Service
	Transactions *transaction.Service
	Leaderboard  *leaderboard.Service
	Import       *importer.Service
	Export       *export.Service
}

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func FormatKg(v float64) string {
	return fmt.Sprintf("%.2f kg", v)
}

func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

var (
	accent    = lipgloss.Color("205")
	muted     = lipgloss.Color("240")
	errorText = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	titleText = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(accent).Render(s)
}

func errorView(err error) string {
	return lipgloss.NewStyle().Padding(2).Render(errorText.Render(fmt.Sprintf("Error: %v", err)) + "\n\n(Esc to go back)")
}
