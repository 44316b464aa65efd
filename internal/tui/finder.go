package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/i18n"
	"github.com/danisty/LethalManager/internal/search"
)

// Action is what the finder will do with a mod once confirmed
type Action string

const (
	ActionNone      Action = ""
	ActionInstall   Action = "install"
	ActionUninstall Action = "uninstall"
)

// ModItem is a catalog package with its install state in the profile
type ModItem struct {
	Package   catalog.Package
	Installed string // installed version, empty when not installed
	Selected  bool   // user toggled selection
}

// IsInstalled reports whether the mod is in the profile
func (it ModItem) IsInstalled() bool {
	return it.Installed != ""
}

// Action returns what will happen to this mod
func (it ModItem) Action() Action {
	if it.IsInstalled() && !it.Selected {
		return ActionUninstall
	}
	if !it.IsInstalled() && it.Selected {
		return ActionInstall
	}
	return ActionNone
}

// FinderResult holds the mods picked in the finder
type FinderResult struct {
	ToInstall   []ModItem
	ToUninstall []ModItem
	Cancelled   bool
}

// Searcher runs catalog searches, see search.Engine
type Searcher interface {
	Search(q search.Query) (*search.Results, error)
}

// searchResultMsg carries the outcome of one finder search
type searchResultMsg struct {
	seq      int
	text     string
	packages []catalog.Package
	err      error
}

// ViewMode represents the current view mode
type ViewMode int

const (
	ModeList ViewMode = iota
	ModeConfirm
)

// Model is the bubbletea model of the mod finder
type Model struct {
	items       []ModItem
	byName      map[string]int
	filtered    []int         // indexes into items
	matches     map[int][]int // rune positions of the filter match per item
	searcher    Searcher
	base        search.Query
	seq         int // sequence number of the latest search request
	searchErr   error
	cursor      int
	width       int
	height      int
	searchInput textinput.Model
	mode        ViewMode
	quitting    bool
	confirmed   bool
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Underline(true)

	installedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	toInstallStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	toUninstallStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))

	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 2).
			Align(lipgloss.Center)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// NewModel creates a finder over items. Installed items start selected.
// Typing runs base, with the typed text, through searcher; only the newest
// search updates the list.
func NewModel(items []ModItem, searcher Searcher, base search.Query) Model {
	ti := textinput.New()
	ti.Placeholder = i18n.T("FinderFilterPlaceholder", nil)
	ti.CharLimit = 50
	ti.Width = 30

	m := Model{
		items:       append([]ModItem(nil), items...),
		byName:      make(map[string]int, len(items)),
		filtered:    make([]int, len(items)),
		matches:     map[int][]int{},
		searcher:    searcher,
		base:        base,
		searchInput: ti,
		mode:        ModeList,
	}
	for i := range m.items {
		m.items[i].Selected = m.items[i].IsInstalled()
		m.byName[m.items[i].Package.FullName] = i
		m.filtered[i] = i
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.searchCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode == ModeConfirm {
			return m.handleConfirmKey(msg)
		}
		return m.handleListKey(msg)
	case searchResultMsg:
		m.applyResult(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.searchInput.Value() != "" {
			m.searchInput.SetValue("")
			return m.refilter()
		}
		m.quitting = true
		return m, tea.Quit

	case "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}

	case "tab":
		if m.cursor < len(m.filtered) {
			idx := m.filtered[m.cursor]
			m.items[idx].Selected = !m.items[idx].Selected
		}

	case "enter":
		if m.hasChanges() {
			m.mode = ModeConfirm
		}

	case "backspace":
		val := []rune(m.searchInput.Value())
		if len(val) > 0 {
			m.searchInput.SetValue(string(val[:len(val)-1]))
			return m.refilter()
		}

	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.searchInput.SetValue(m.searchInput.Value() + string(msg.Runes))
			return m.refilter()
		}
	}

	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.confirmed = true
		m.quitting = true
		return m, tea.Quit

	case "n", "N", "esc", "q":
		m.mode = ModeList
	}
	return m, nil
}

// refilter starts a search for the edited filter text
func (m Model) refilter() (tea.Model, tea.Cmd) {
	m.seq++
	return m, m.searchCmd()
}

// searchCmd searches for the current filter text off the update loop, where
// a newer search may supersede an older one that is still scanning.
func (m Model) searchCmd() tea.Cmd {
	seq := m.seq

	q := m.base
	q.Text = strings.TrimSpace(m.searchInput.Value())
	q.Page = 0
	q.PageSize = max(1, len(m.items))

	searcher := m.searcher
	return func() tea.Msg {
		res, err := searcher.Search(q)
		msg := searchResultMsg{seq: seq, text: q.Text, err: err}
		if err == nil {
			msg.packages = res.Mods
		}
		return msg
	}
}

// applyResult shows the packages of the latest search. Superseded and out of
// order results are dropped.
func (m *Model) applyResult(msg searchResultMsg) {
	if msg.seq != m.seq || errors.IsErrorCode(msg.err, errors.ErrCancelled) {
		return
	}
	if msg.err != nil {
		m.searchErr = msg.err
		return
	}
	m.searchErr = nil

	m.filtered = make([]int, 0, len(msg.packages))
	for _, p := range msg.packages {
		if idx, ok := m.byName[p.FullName]; ok {
			m.filtered = append(m.filtered, idx)
		}
	}

	m.matches = make(map[int][]int)
	if msg.text != "" {
		for _, r := range search.Rank(msg.packages, msg.text) {
			if idx, ok := m.byName[r.Package.FullName]; ok && len(r.MatchedIndexes) > 0 {
				m.matches[idx] = r.MatchedIndexes
			}
		}
	}

	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

func (m Model) hasChanges() bool {
	for _, item := range m.items {
		if item.Action() != ActionNone {
			return true
		}
	}
	return false
}

func (m Model) changes() (toInstall, toUninstall []ModItem) {
	for _, item := range m.items {
		switch item.Action() {
		case ActionInstall:
			toInstall = append(toInstall, item)
		case ActionUninstall:
			toUninstall = append(toUninstall, item)
		}
	}
	return
}

// Result returns the confirmed changes of a finished finder
func (m Model) Result() *FinderResult {
	if !m.confirmed {
		return &FinderResult{Cancelled: true}
	}
	toInstall, toUninstall := m.changes()
	return &FinderResult{ToInstall: toInstall, ToUninstall: toUninstall}
}

func (m Model) View() string {
	if m.quitting && !m.confirmed {
		return ""
	}
	if m.mode == ModeConfirm {
		return m.renderConfirmModal()
	}
	return m.renderListView()
}

func (m Model) renderListView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(i18n.T("FinderHeader", map[string]any{"Count": len(m.items)}, len(m.items))))
	b.WriteString("\n\n")

	listWidth := 44
	previewWidth := max(30, m.width-listWidth-6)
	listHeight := max(5, m.height-8)

	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	end := min(start+listHeight, len(m.filtered))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderItem(i))
	}

	listBox := lipgloss.NewStyle().Width(listWidth).Render(strings.Join(lines, "\n"))
	previewBox := previewStyle.Width(previewWidth).Height(listHeight).Render(m.renderPreview())

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, listBox, "  ", previewBox))
	b.WriteString("\n\n")

	if q := m.searchInput.Value(); q != "" {
		b.WriteString("> " + q + "_")
	} else {
		b.WriteString(helpStyle.Render("> " + m.searchInput.Placeholder))
	}
	b.WriteString("\n")
	if m.searchErr != nil {
		b.WriteString(toUninstallStyle.Render(m.searchErr.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(i18n.T("FinderHelp", nil)))

	return b.String()
}

func (m Model) renderItem(pos int) string {
	idx := m.filtered[pos]
	item := m.items[idx]

	cursor := "  "
	if pos == m.cursor {
		cursor = "> "
	}

	var checkbox string
	style := normalStyle
	switch {
	case item.Action() == ActionInstall:
		checkbox, style = "[+]", toInstallStyle
	case item.Action() == ActionUninstall:
		checkbox, style = "[-]", toUninstallStyle
	case item.IsInstalled():
		checkbox, style = "[*]", installedStyle
	default:
		checkbox = "[ ]"
	}

	if pos == m.cursor {
		return selectedStyle.Render(fmt.Sprintf("%s%s %s", cursor, checkbox, search.Label(&item.Package)))
	}
	return style.Render(cursor+checkbox+" ") + highlight(search.Label(&item.Package), m.matches[idx], style)
}

// highlight renders the runes of s at positions with matchStyle
func highlight(s string, positions []int, base lipgloss.Style) string {
	if len(positions) == 0 {
		return base.Render(s)
	}
	marked := make(map[int]bool, len(positions))
	for _, p := range positions {
		marked[p] = true
	}

	var b strings.Builder
	for i, r := range []rune(s) {
		if marked[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}
	return b.String()
}

func (m Model) renderPreview() string {
	if m.cursor >= len(m.filtered) {
		return i18n.T("FinderPreviewEmpty", nil)
	}

	item := m.items[m.filtered[m.cursor]]
	p := item.Package

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s: %s\n", i18n.T("LabelName", nil), p.FullName))
	b.WriteString(fmt.Sprintf("%s: %s\n", i18n.T("LabelAuthor", nil), p.Owner))

	latest, ok := p.Latest()
	if ok {
		b.WriteString(fmt.Sprintf("%s: %s\n", i18n.T("LabelVersion", nil), latest.VersionNumber))
	}
	if item.IsInstalled() {
		b.WriteString(installedStyle.Render(i18n.T("StatusInstalled", map[string]any{"Version": item.Installed})) + "\n")
	}
	b.WriteString("\n")

	if ok && latest.Description != "" {
		b.WriteString(latest.Description + "\n\n")
	}
	if ok {
		b.WriteString(fmt.Sprintf("%s: %d\n", i18n.T("LabelDownloads", nil), latest.Downloads))
	}
	b.WriteString(fmt.Sprintf("%s: %d\n", i18n.T("LabelRating", nil), p.RatingScore))
	if len(p.Categories) > 0 {
		b.WriteString(fmt.Sprintf("%s: %s\n", i18n.T("LabelCategories", nil), strings.Join(p.Categories, ", ")))
	}
	if p.IsDeprecated {
		b.WriteString(toUninstallStyle.Render(i18n.T("StatusDeprecated", nil)) + "\n")
	}

	return b.String()
}

func (m Model) renderConfirmModal() string {
	toInstall, toUninstall := m.changes()

	var b strings.Builder
	b.WriteString(i18n.T("ConfirmTitle", nil))
	b.WriteString("\n\n")

	if len(toInstall) > 0 {
		b.WriteString(toInstallStyle.Render(i18n.T("ToInstall", map[string]any{"Count": len(toInstall)}, len(toInstall))))
		b.WriteString("\n")
		for _, item := range toInstall {
			version := "?"
			if latest, ok := item.Package.Latest(); ok {
				version = latest.VersionNumber
			}
			b.WriteString(fmt.Sprintf("  + %s (v%s)\n", item.Package.FullName, version))
		}
		b.WriteString("\n")
	}

	if len(toUninstall) > 0 {
		b.WriteString(toUninstallStyle.Render(i18n.T("ToUninstall", map[string]any{"Count": len(toUninstall)}, len(toUninstall))))
		b.WriteString("\n")
		for _, item := range toUninstall {
			b.WriteString(fmt.Sprintf("  - %s (v%s)\n", item.Package.FullName, item.Installed))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[y] " + i18n.T("Confirm", nil) + "  [n] " + i18n.T("Cancel", nil)))

	return modalStyle.Render(b.String())
}

// RunModFinder launches the interactive finder over items
func RunModFinder(items []ModItem, searcher Searcher, base search.Query) (*FinderResult, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%s", i18n.T("NoModsAvailable", nil))
	}

	p := tea.NewProgram(NewModel(items, searcher, base), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(Model).Result(), nil
}
