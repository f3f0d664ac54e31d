package tui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thuan734655/all-tools-nihongo/internal/answer"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

var (
	frontStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	backStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle      = lipgloss.NewStyle().
			Padding(1, 4).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Model implements the Bubble Tea flashcard UI.
type Model struct {
	ctx    context.Context
	review *Review
	input  textinput.Model

	flipped bool
	result  *answer.Result
	err     error

	width  int
	height int
}

// NewModel constructs a review TUI model. The session must already be
// started.
func NewModel(ctx context.Context, review *Review) *Model {
	ti := textinput.New()
	ti.Prompt = "answer> "
	ti.Placeholder = "reading, romaji or meaning"
	ti.CharLimit = 128
	if review.Typed {
		ti.Focus()
	}
	return &Model{ctx: ctx, review: review, input: ti}
}

// Err returns the error that stopped the session, if any.
func (m *Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.review.Typed {
		return textinput.Blink
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		if !m.flipped {
			return m.updateFront(msg)
		}
		return m.updateBack(msg)
	default:
		if m.review.Typed && !m.flipped {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

func (m *Model) updateFront(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.review.Typed {
		if msg.Type == tea.KeyEnter {
			if strings.TrimSpace(m.input.Value()) == "" {
				return m, nil
			}
			card, err := m.review.Current()
			if err != nil {
				m.err = err
				return m, tea.Quit
			}
			res := answer.Check(card.Item, m.input.Value())
			m.result = &res
			m.flipped = true
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	switch msg.String() {
	case " ", "enter":
		m.flipped = true
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateBack(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "enter", " ":
		if m.result == nil {
			return m, nil
		}
		return m.grade(answer.SuggestGrade(*m.result))
	}
	g, err := srs.ParseGrade(key)
	if err != nil {
		return m, nil
	}
	return m.grade(g)
}

func (m *Model) grade(g srs.Grade) (tea.Model, tea.Cmd) {
	if err := m.review.Grade(m.ctx, g); err != nil {
		slog.Error("failed to save review", "err", err)
		m.err = err
		return m, tea.Quit
	}
	if m.review.Done() {
		return m, tea.Quit
	}
	m.flipped = false
	m.result = nil
	m.input.Reset()
	if m.review.Typed {
		return m, m.input.Focus()
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.review.Done() {
		return ""
	}
	card, err := m.review.Current()
	if err != nil {
		return ""
	}
	content := m.renderCard(card)
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderCard(card Card) string {
	contentWidth := 40
	if m.width > 0 {
		contentWidth = max(10, int(float64(m.width)*0.6))
	}
	lines := []string{frontStyle.Render(card.Item.Front), ""}
	if !m.flipped {
		if m.review.Typed {
			lines = append(lines, m.input.View())
		} else {
			lines = append(lines, hintStyle.Render("space to reveal"))
		}
		return cardStyle.Render(strings.Join(lines, "\n"))
	}
	for _, line := range answerLines(card.Item) {
		lines = append(lines, backStyle.Render(wrapText(line, contentWidth)))
	}
	if m.result != nil {
		lines = append(lines, "")
		if m.result.Correct {
			lines = append(lines, correctStyle.Render("correct · enter accepts good"))
		} else {
			lines = append(lines, incorrectStyle.Render("incorrect · enter accepts again"))
		}
	}
	lines = append(lines, "", hintStyle.Render(m.review.GradeHints(card.Schedule)))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	line := progressLine(m.review)
	if line == "" {
		return ""
	}
	return footerStyle.Render(line)
}
