package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/danisty/LethalManager/internal/i18n"
)

// ConfirmOption is one answer of a confirm prompt
type ConfirmOption struct {
	Value bool
	Label string
}

// ConfirmModel is a yes/no prompt
type ConfirmModel struct {
	prompt    string
	details   []string
	options   []ConfirmOption
	cursor    int
	selected  bool
	quitting  bool
	confirmed bool
}

var (
	promptTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	promptDetailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	optionSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Bold(true)

	promptBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)

// NewConfirmModel creates a prompt that defaults to "no". details are listed
// under the prompt, one per line.
func NewConfirmModel(prompt string, details ...string) ConfirmModel {
	return ConfirmModel{
		prompt:  prompt,
		details: details,
		options: []ConfirmOption{
			{Value: true, Label: i18n.T("Confirm", nil)},
			{Value: false, Label: i18n.T("Cancel", nil)},
		},
		cursor: 1,
	}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.selected = false
			return m, tea.Quit

		case "up", "k", "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j", "right", "l":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}

		case "y", "Y":
			return m.answer(true)

		case "n", "N", "esc":
			return m.answer(false)

		case "enter", " ":
			return m.answer(m.options[m.cursor].Value)
		}
	}

	return m, nil
}

func (m ConfirmModel) answer(value bool) (tea.Model, tea.Cmd) {
	m.selected = value
	m.confirmed = true
	m.quitting = true
	return m, tea.Quit
}

func (m ConfirmModel) View() string {
	if m.quitting && !m.confirmed {
		return ""
	}

	var b strings.Builder

	b.WriteString(promptTitleStyle.Render(m.prompt))
	b.WriteString("\n\n")

	for _, d := range m.details {
		b.WriteString("  " + promptDetailStyle.Render(d))
		b.WriteString("\n")
	}
	if len(m.details) > 0 {
		b.WriteString("\n")
	}

	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(optionSelectedStyle.Render(fmt.Sprintf("▸ %s", opt.Label)))
		} else {
			b.WriteString(optionStyle.Render(fmt.Sprintf("  %s", opt.Label)))
		}
		b.WriteString("  ")
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("y/n | ←/→: " + i18n.T("HelpMove", nil) + " | Enter: " + i18n.T("HelpSelect", nil)))

	return promptBoxStyle.Render(b.String())
}

// Selected returns whether the user answered yes
func (m ConfirmModel) Selected() bool {
	return m.selected
}

// IsConfirmed returns whether the user answered at all
func (m ConfirmModel) IsConfirmed() bool {
	return m.confirmed
}

// RunConfirm asks a yes/no question and reports whether the user said yes.
// Aborting the prompt counts as no.
func RunConfirm(prompt string, details ...string) (bool, error) {
	p := tea.NewProgram(NewConfirmModel(prompt, details...))

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m := finalModel.(ConfirmModel)
	return m.IsConfirmed() && m.Selected(), nil
}
