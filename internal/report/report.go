package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/store"
)

const (
	sparkChars = " .:-=+*#%@"
	timeLayout = "2006-01-02 15:04"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// Options controls rendering.
type Options struct {
	Color bool
	// Window is the moving-average window for the pass-rate trend.
	Window int
	// PlotWidth enables the trend plot when positive.
	PlotWidth int
}

// Sessions loads the sessions matching filter.
func Sessions(ctx context.Context, st *store.Store, filter model.SessionFilter) ([]model.SessionAggregate, error) {
	sessions, err := st.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(sessions) > filter.Last {
		sessions = sessions[len(sessions)-filter.Last:]
	}
	return sessions, nil
}

// PassRate returns the share of recorded trials that passed.
func PassRate(s model.SessionAggregate) float64 {
	if s.Recorded == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Recorded)
}

// RenderSessions prints a summary, the pass-rate trend and a session table.
func RenderSessions(w io.Writer, sessions []model.SessionAggregate, opts Options) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var recorded, passed int
	rates := make([]float64, len(sessions))
	for i, s := range sessions {
		recorded += s.Recorded
		passed += s.Passed
		rates[i] = PassRate(s) * 100
	}
	overall := 0.0
	if recorded > 0 {
		overall = float64(passed) / float64(recorded) * 100
	}

	if _, err := fmt.Fprintln(w, style(titleStyle, "Summary", opts.Color)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", len(sessions)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trials recorded: %d\n", recorded); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Pass rate: %.2f%%\n", overall); err != nil {
		return err
	}
	if len(sessions) > 1 {
		trend := Sparkline(MovingAverage(rates, opts.Window))
		if _, err := fmt.Fprintf(w, "Trend: [%s]\n", trend); err != nil {
			return err
		}
	}
	if opts.PlotWidth > 0 && len(sessions) > 1 {
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return err
		}
		if err := RenderCurves(w, sessions, opts.Window, opts.PlotWidth, opts.Color); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}

	headers := []string{"Session", "Started", "Subject", "Condition", "Mode", "Recorded", "Passed", "Pass Rate"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			shortID(s.ID),
			s.StartedAt.Local().Format(timeLayout),
			s.Subject,
			s.Condition,
			s.Mode,
			fmt.Sprintf("%d/%d", s.Recorded, s.Trials),
			fmt.Sprintf("%d", s.Passed),
			fmt.Sprintf("%.2f%%", PassRate(s)*100),
		})
	}
	rightAlign := map[int]bool{5: true, 6: true, 7: true}
	lines := formatTable(headers, rows, rightAlign)
	for i, line := range lines {
		if i == 0 {
			line = style(mutedStyle, line, opts.Color)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderResults prints the recorded trials of one session.
func RenderResults(w io.Writer, rows []model.ResultRow, opts Options) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	first := rows[0]
	header := fmt.Sprintf("Session %s  subject %s  condition %s", first.SessionID, first.Subject, first.Condition)
	if _, err := fmt.Fprintln(w, style(titleStyle, header, opts.Color)); err != nil {
		return err
	}

	headers := []string{"Trial", "List", "Sentence", "Speaker", "Level", "Correct", "Incorrect", "Score", "Outcome"}
	tableRows := make([][]string, 0, len(rows))
	passed := 0
	for _, r := range rows {
		if r.Outcome == model.OutcomePass {
			passed++
		}
		tableRows = append(tableRows, []string{
			fmt.Sprintf("%d", r.Trial),
			fmt.Sprintf("%d", r.ListNum),
			fmt.Sprintf("%d", r.SentenceNum),
			fmt.Sprintf("%d", r.Speaker),
			formatLevel(r.Level),
			strings.Join(r.Correct, " "),
			strings.Join(r.Incorrect, " "),
			fmt.Sprintf("%d/%d", r.NumCorrect, r.TotalWords),
			r.Outcome.String(),
		})
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 7: true}
	lines := formatTable(headers, tableRows, rightAlign)
	for i, line := range lines {
		switch {
		case i == 0:
			line = style(mutedStyle, line, opts.Color)
		case rows[i-1].Outcome == model.OutcomePass:
			line = style(passStyle, line, opts.Color)
		default:
			line = style(failStyle, line, opts.Color)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nPassed %d of %d trials\n", passed, len(rows))
	return err
}

// RenderTrials prints a built trial set in presentation order.
func RenderTrials(w io.Writer, trials model.TrialSet) error {
	if len(trials) == 0 {
		_, err := fmt.Fprintln(w, "No trials.")
		return err
	}
	headers := []string{"Trial", "List", "Sentence", "Speaker", "Level", "Pres", "Text"}
	rows := make([][]string, 0, len(trials))
	for _, tr := range trials {
		rows = append(rows, []string{
			fmt.Sprintf("%d", tr.TrialIndex+1),
			fmt.Sprintf("%d", tr.ListNum),
			fmt.Sprintf("%d", tr.SentenceNum),
			fmt.Sprintf("%d", tr.Speaker),
			formatLevel(tr.Level),
			fmt.Sprintf("%d", tr.Presentation),
			tr.Sentence,
		})
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// ShouldUseColor reports whether w is a terminal and NO_COLOR is unset.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// TerminalWidth returns the width of w when it is a terminal, or fallback.
func TerminalWidth(w io.Writer, fallback int) int {
	file, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

func style(s lipgloss.Style, text string, enabled bool) string {
	if !enabled {
		return text
	}
	return s.Render(text)
}

func formatLevel(level float64) string {
	if level == math.Trunc(level) {
		return fmt.Sprintf("%.0f", level)
	}
	return fmt.Sprintf("%.1f", level)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
