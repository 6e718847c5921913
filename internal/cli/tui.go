package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/definekit/pkg/define"
)

var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listDetailStyle = lipgloss.NewStyle().Foreground(colorWhite).PaddingLeft(2)
)

// =============================================================================
// DiagnosticsModel - Interactive diagnostics browser
// =============================================================================

// severityFilter selects which diagnostics the browser shows.
type severityFilter int

const (
	filterAll severityFilter = iota
	filterErrors
	filterWarnings
)

func (f severityFilter) String() string {
	switch f {
	case filterErrors:
		return "errors"
	case filterWarnings:
		return "warnings"
	default:
		return "all"
	}
}

// DiagnosticsModel is the bubbletea model for browsing check results.
type DiagnosticsModel struct {
	Title  string
	All    define.Diagnostics
	Filter severityFilter
	Cursor int
	Height int
	Offset int

	shown define.Diagnostics
}

// NewDiagnosticsModel creates a browser over diags, errors first.
func NewDiagnosticsModel(title string, diags define.Diagnostics) DiagnosticsModel {
	m := DiagnosticsModel{
		Title:  title,
		All:    append(diags.Filter(isError), diags.Filter(isWarning)...),
		Height: 15,
	}
	m.applyFilter()
	return m
}

func (m *DiagnosticsModel) applyFilter() {
	switch m.Filter {
	case filterErrors:
		m.shown = m.All.Filter(isError)
	case filterWarnings:
		m.shown = m.All.Filter(isWarning)
	default:
		m.shown = m.All
	}
	m.Cursor, m.Offset = 0, 0
}

// Shown returns the diagnostics that pass the current filter.
func (m DiagnosticsModel) Shown() define.Diagnostics { return m.shown }

func (m DiagnosticsModel) Init() tea.Cmd {
	return nil
}

func (m DiagnosticsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.shown)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "tab", "f":
			m.Filter = (m.Filter + 1) % 3
			m.applyFilter()
		case "e":
			m.Filter = filterErrors
			m.applyFilter()
		case "w":
			m.Filter = filterWarnings
			m.applyFilter()
		case "a":
			m.Filter = filterAll
			m.applyFilter()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m DiagnosticsModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab filter (e/w/a)  q quit"))
	b.WriteString("\n\n")

	if len(m.shown) == 0 {
		b.WriteString(StyleSuccess.Render(fmt.Sprintf("  no %s", m.Filter)))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.shown))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		d := m.shown[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		sev := iconWarning
		if isError(d) {
			sev = iconError
		}
		rows = append(rows, []string{cursor, sev, orDash(d.Sheet), rowLabel(d.Row), orDash(d.Column), truncate(d.Message, 60)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Sheet", "Row", "Column", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.shown) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 1 {
				if isError(m.shown[idx]) {
					base = base.Foreground(colorRed)
				} else {
					base = base.Foreground(colorYellow)
				}
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			if col == 1 {
				return base
			}
			return base.Foreground(colorGray)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	cur := m.shown[m.Cursor]
	if loc := diagLocation(cur); loc != "" {
		b.WriteString(listDetailStyle.Render(StyleDim.Render(loc)))
		b.WriteString("\n")
	}
	b.WriteString(listDetailStyle.Render(cur.Message))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %s", m.Cursor+1, len(m.shown), m.Filter)))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func rowLabel(row int) string {
	if row <= 0 {
		return "—"
	}
	return fmt.Sprint(row)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
