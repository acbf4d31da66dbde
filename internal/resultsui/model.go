// Package resultsui provides the Bubble Tea results browser.
package resultsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/report"
)

const (
	tabOverview = iota
	tabSessions
	tabTrials
)

const (
	fieldSubject = iota
	fieldCondition
	fieldSince
	fieldLast
	fieldWindow
)

const dateLayout = "2006-01-02"

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Source is the read side of the results store.
type Source interface {
	ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.SessionAggregate, error)
	ListResults(ctx context.Context, sessionID string) ([]model.ResultRow, error)
}

// Config is the initial browser state.
type Config struct {
	Filter model.SessionFilter
	Window int
}

// Model implements the Bubble Tea results browser.
type Model struct {
	ctx    context.Context
	source Source
	cfg    Config

	sessions []model.SessionAggregate
	selected string
	errMsg   string

	tabs      []string
	activeTab int
	overview  viewport.Model
	trials    viewport.Model
	table     table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a browser and loads the first page of sessions.
func NewModel(ctx context.Context, source Source, cfg Config) *Model {
	if cfg.Window < 1 {
		cfg.Window = 1
	}
	m := &Model{
		ctx:      ctx,
		source:   source,
		cfg:      cfg,
		tabs:     []string{"Overview", "Sessions", "Trials"},
		overview: viewport.New(0, 0),
		trials:   viewport.New(0, 0),
		table:    newSessionTable(),
	}
	m.initInputs()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "=":
		m.cfg.Window = nextWindow(m.cfg.Window)
		m.renderOverview()
		return m, nil
	case "-":
		m.cfg.Window = prevWindow(m.cfg.Window)
		m.renderOverview()
		return m, nil
	case "/":
		return m.startFilter()
	case "enter":
		if m.activeTab == tabSessions {
			m.openSelected()
		}
		return m, nil
	}
	var cmd tea.Cmd
	switch m.activeTab {
	case tabSessions:
		m.table, cmd = m.table.Update(msg)
	case tabTrials:
		m.trials, cmd = m.trials.Update(msg)
	default:
		m.overview, cmd = m.overview.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Selected returns the id of the session shown on the trials tab.
func (m *Model) Selected() string {
	return m.selected
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Subject: "),
		newFilterInput("Condition: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Trend window: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	f := m.cfg.Filter
	m.filterInputs[fieldSubject].SetValue(f.Subject)
	m.filterInputs[fieldCondition].SetValue(f.Condition)
	m.filterInputs[fieldSince].SetValue("")
	if f.Since != nil {
		m.filterInputs[fieldSince].SetValue(f.Since.Format(dateLayout))
	}
	m.filterInputs[fieldLast].SetValue("")
	if f.Last > 0 {
		m.filterInputs[fieldLast].SetValue(strconv.Itoa(f.Last))
	}
	m.filterInputs[fieldWindow].SetValue(strconv.Itoa(m.cfg.Window))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(1, lipgloss.Height(activeNavStyle.Render("X"))) + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width, m.overview.Height = m.width, bodyHeight
	m.trials.Width, m.trials.Height = m.width, bodyHeight
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(1, bodyHeight-1))
	for i := range m.filterInputs {
		m.filterInputs[i].Width = max(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabSessions {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) refresh() {
	sessions, err := m.source.ListSessions(m.ctx, m.cfg.Filter)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load sessions.")
		return
	}
	m.errMsg = ""
	m.sessions = sessions
	m.table.SetRows(sessionRows(sessions))
	m.table.GotoBottom()
	m.renderOverview()
	if m.selected == "" {
		m.trials.SetContent("Select a session on the Sessions tab and press enter.")
	}
}

func (m *Model) openSelected() {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.sessions) {
		return
	}
	id := m.sessions[idx].ID
	rows, err := m.source.ListResults(m.ctx, id)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	var buf bytes.Buffer
	if err := report.RenderResults(&buf, rows, report.Options{Color: true}); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.selected = id
	m.trials.SetContent(strings.TrimRight(buf.String(), "\n"))
	m.trials.GotoTop()
	m.activeTab = tabTrials
	m.table.Blur()
}

func (m *Model) renderOverview() {
	if m.errMsg != "" && len(m.sessions) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	if len(m.sessions) == 0 {
		m.overview.SetContent("No sessions found.")
		return
	}
	content := renderSummaryCards(m.sessions, width)
	var buf bytes.Buffer
	if err := report.RenderCurves(&buf, m.sessions, m.cfg.Window, width, true); err != nil {
		content += "\n\n" + fmt.Sprintf("Failed to render curves: %v", err)
	} else if buf.Len() > 0 {
		content += "\n\n" + strings.TrimRight(buf.String(), "\n")
	}
	m.overview.SetContent(content)
}

func renderSummaryCards(sessions []model.SessionAggregate, width int) string {
	var recorded, passed, words, wordsCorrect int
	best := 0.0
	for _, s := range sessions {
		recorded += s.Recorded
		passed += s.Passed
		words += s.WordsTotal
		wordsCorrect += s.WordsCorrect
		best = max(best, report.PassRate(s))
	}
	passRate, wordRate := 0.0, 0.0
	if recorded > 0 {
		passRate = float64(passed) / float64(recorded)
	}
	if words > 0 {
		wordRate = float64(wordsCorrect) / float64(words)
	}
	cards := []string{
		metricCard("Sessions", strconv.Itoa(len(sessions))),
		metricCard("Trials", strconv.Itoa(recorded)),
		metricCard("Pass rate", fmt.Sprintf("%.1f%%", passRate*100)),
		metricCard("Best session", fmt.Sprintf("%.1f%%", best*100)),
		metricCard("Words correct", fmt.Sprintf("%.1f%%", wordRate*100)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func newSessionTable() table.Model {
	columns := []table.Column{
		{Title: "Session", Width: 8},
		{Title: "Started", Width: 16},
		{Title: "Subject", Width: 8},
		{Title: "Condition", Width: 10},
		{Title: "Mode", Width: 6},
		{Title: "Recorded", Width: 8},
		{Title: "Pass Rate", Width: 9},
	}
	t := table.New(table.WithColumns(columns), table.WithHeight(1))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.Padding(0, 1).PaddingLeft(0)
	styles.Selected = styles.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	t.SetStyles(styles)
	return t
}

func sessionRows(sessions []model.SessionAggregate) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		id := s.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, table.Row{
			id,
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.Subject,
			s.Condition,
			s.Mode,
			fmt.Sprintf("%d/%d", s.Recorded, s.Trials),
			fmt.Sprintf("%.1f%%", report.PassRate(s)*100),
		})
	}
	return rows
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	return tabs + "\n" + headerStyle.Render(truncateLine(m.filterSummary(), m.width))
}

func (m *Model) filterSummary() string {
	f := m.cfg.Filter
	subject, condition, since, last := "any", "any", "any", "all"
	if f.Subject != "" {
		subject = f.Subject
	}
	if f.Condition != "" {
		condition = f.Condition
	}
	if f.Since != nil {
		since = f.Since.Format(dateLayout)
	}
	if f.Last > 0 {
		last = strconv.Itoa(f.Last)
	}
	return fmt.Sprintf("Filter: subject=%s  condition=%s  since=%s  last=%s  window=%d",
		subject, condition, since, last, m.cfg.Window)
}

func (m *Model) renderBody() string {
	if m.filterMode {
		lines := []string{"Filter (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return strings.Join(lines, "\n")
	}
	switch m.activeTab {
	case tabSessions:
		if len(m.sessions) == 0 {
			return "No sessions found."
		}
		return tableMutedStyle.Render(m.table.View())
	case tabTrials:
		return m.trials.View()
	default:
		return m.overview.View()
	}
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  quit: ctrl+c")
	}
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Filter: /  Quit: q"
	if m.activeTab == tabSessions {
		help = "Nav: left/right  Select: up/down  Open: enter  Filter: /  Quit: q"
	}
	if m.errMsg != "" {
		return headerStyle.Render(help) + "\n" + errorStyle.Render(m.errMsg)
	}
	return headerStyle.Render(help)
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refresh()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	value := func(field int) string {
		return strings.TrimSpace(m.filterInputs[field].Value())
	}
	filter := model.SessionFilter{
		Subject:   value(fieldSubject),
		Condition: value(fieldCondition),
	}
	if s := value(fieldSince); s != "" {
		parsed, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		filter.Since = &parsed
	}
	if s := value(fieldLast); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		filter.Last = parsed
	}
	window := m.cfg.Window
	if s := value(fieldWindow); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid trend window (use integer >= 1)")
		}
		window = parsed
	}
	m.cfg = Config{Filter: filter, Window: window}
	return nil
}

func nextWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLine(line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		return line + strings.Repeat(" ", width-w)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
