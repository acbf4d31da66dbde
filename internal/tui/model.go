// Package tui provides the Bubble Tea operator console.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/speechtasker/internal/autojudge"
	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/session"
)

// Driver is the session surface the console needs.
type Driver interface {
	Current() (model.TrialRow, error)
	Repeat(ctx context.Context) error
	Next(ctx context.Context, judgments map[int]bool) (model.ScoreRecord, error)
	Progress() (current, total int)
}

// Model implements the Bubble Tea operator console.
type Model struct {
	ctx    context.Context
	driver Driver
	judge  *autojudge.Judge
	log    *zap.Logger

	keys  keyMap
	help  help.Model
	input textinput.Model

	width  int
	height int

	trial     model.TrialRow
	position  int
	total     int
	judgments map[int]bool
	focus     int
	typing    bool

	lastScore *model.ScoreRecord
	status    string
	errMsg    string
	done      bool
}

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	plainWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	numberStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Faint(true)
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs the console over a started session.
func NewModel(ctx context.Context, driver Driver, judge *autojudge.Judge, log *zap.Logger) *Model {
	if judge == nil {
		judge = autojudge.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	input := textinput.New()
	input.Prompt = "Response: "
	input.Placeholder = "what the listener said"
	input.CharLimit = 0

	m := &Model{
		ctx:    ctx,
		driver: driver,
		judge:  judge,
		log:    log,
		keys:   defaultKeyMap(),
		help:   help.New(),
		input:  input,
	}
	m.loadTrial()
	return m
}

// Done reports whether every trial has been recorded.
func (m *Model) Done() bool {
	return m.done
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
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width/2)
		return m, nil
	case tea.KeyMsg:
		if m.typing {
			return m.updateTyping(msg)
		}
		return m.updateJudging(msg)
	default:
		if m.typing {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

func (m *Model) updateJudging(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case m.done:
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		idx := int(msg.String()[0] - '1')
		if idx < len(m.trial.KeyWords) {
			m.focus = idx
			m.toggle(idx)
		}
	case key.Matches(msg, m.keys.Left):
		if m.focus > 0 {
			m.focus--
		}
	case key.Matches(msg, m.keys.Right):
		if m.focus < len(m.trial.KeyWords)-1 {
			m.focus++
		}
	case key.Matches(msg, m.keys.Flip):
		m.toggle(m.focus)
	case key.Matches(msg, m.keys.Repeat):
		m.repeat()
	case key.Matches(msg, m.keys.Type):
		m.typing = true
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Next):
		return m.next()
	}
	return m, nil
}

func (m *Model) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.typing = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		response := m.input.Value()
		m.judgments = m.judge.Judge(m.trial.KeyWords, response)
		m.typing = false
		m.input.Blur()
		m.status = fmt.Sprintf("Judged response %q", strings.TrimSpace(response))
		m.log.Debug("auto-judged response", zap.Int("trial", m.position), zap.String("response", response))
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) toggle(idx int) {
	if idx < 0 || idx >= len(m.trial.KeyWords) {
		return
	}
	pos := m.trial.KeyWords[idx].Position
	m.judgments[pos] = !m.judgments[pos]
}

func (m *Model) repeat() {
	if err := m.driver.Repeat(m.ctx); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.status = fmt.Sprintf("Repeated trial %d", m.position)
}

func (m *Model) next() (tea.Model, tea.Cmd) {
	score, err := m.driver.Next(m.ctx, m.judgments)
	switch {
	case errors.Is(err, session.ErrComplete):
		m.lastScore = &score
		m.done = true
		m.errMsg = ""
		m.status = "Task complete"
		return m, tea.Quit
	case err != nil:
		m.errMsg = err.Error()
		// A failed presentation still advances; a failed record does not.
		m.loadTrial()
		return m, nil
	}
	m.lastScore = &score
	m.errMsg = ""
	m.status = fmt.Sprintf("Trial %d: %s (%d/%d)", m.position, score.Outcome, score.NumCorrect, score.TotalWords)
	m.loadTrial()
	return m, nil
}

// loadTrial syncs with the driver. Judgments reset only when the trial
// changed, so a failed record keeps the operator's toggles.
func (m *Model) loadTrial() {
	current, total := m.driver.Progress()
	m.total = total
	if current == m.position && m.judgments != nil {
		return
	}
	trial, err := m.driver.Current()
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.trial = trial
	m.position = current
	m.focus = 0
	m.judgments = make(map[int]bool, len(trial.KeyWords))
	for _, kw := range trial.KeyWords {
		m.judgments[kw.Position] = false
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.done {
		return m.renderDone()
	}
	header := headerStyle.Render(fmt.Sprintf("Trial %d of %d  ·  list %d  sentence %d  ·  speaker %d  ·  %s dB",
		m.position, m.total, m.trial.ListNum, m.trial.SentenceNum, m.trial.Speaker, formatLevel(m.trial.Level)))

	runes := buildSentenceRunes(m.trial.Sentence, m.trial.KeyWords, m.judgments, m.focus)
	contentWidth := int(float64(m.width) * 0.70)
	if m.width == 0 {
		contentWidth = 0
	}
	sentence := wrapStyledRunes(runes, contentWidth)

	lines := []string{header, "", sentence, ""}
	if m.typing {
		lines = append(lines, m.input.View())
	}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	} else if m.status != "" {
		lines = append(lines, statusStyle.Render(m.status))
	}
	body := strings.Join(lines, "\n")

	footer := m.renderFooter()
	if m.width == 0 || m.height < 3 {
		return body + "\n" + footer
	}
	bodyHeight := m.height - 1
	content := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body)
	return content + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) renderFooter() string {
	var keys help.KeyMap = judgeKeys(m.keys)
	if m.typing {
		keys = typingKeys(m.keys)
	}
	segments := []string{fmt.Sprintf("Correct %d/%d", m.countCorrect(), len(m.trial.KeyWords))}
	if m.lastScore != nil {
		segments = append(segments, fmt.Sprintf("Last %s", m.lastScore.Outcome))
	}
	return footerStyle.Render(strings.Join(segments, "  ")) + "  " + m.help.View(keys)
}

func (m *Model) renderDone() string {
	text := "Task complete"
	if m.lastScore != nil {
		text += fmt.Sprintf("  ·  last trial %s", m.lastScore.Outcome)
	}
	return statusStyle.Render(text) + "\n"
}

func (m *Model) countCorrect() int {
	n := 0
	for _, kw := range m.trial.KeyWords {
		if m.judgments[kw.Position] {
			n++
		}
	}
	return n
}

func formatLevel(level float64) string {
	if level == float64(int64(level)) {
		return fmt.Sprintf("%d", int64(level))
	}
	return fmt.Sprintf("%.1f", level)
}
