package report

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/verte-zerg/speechtasker/internal/model"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Trend", []Series{
		{Name: "A", Values: []float64{100, 100}},
		{Name: "B", Values: []float64{0, 50, 100, 50, 0}},
	}, 10, 4, false)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1+4+1 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Trend" || !strings.HasPrefix(lines[len(lines)-1], "Legend:") {
		t.Fatalf("unexpected frame:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[1], "100% | ") || !strings.HasPrefix(lines[4], "  0% | ") {
		t.Fatalf("unexpected axis:\n%s", buf.String())
	}
	for _, line := range lines[1:5] {
		if got := utf8.RuneCountInString(line); got != len("100% | ")+10 {
			t.Fatalf("unexpected row width %d: %q", got, line)
		}
	}
	// The solid flat 100% series fills the top dot row.
	if strings.ContainsRune(lines[1], brailleRune(0)) {
		t.Fatalf("expected every top cell to hold a dot: %q", lines[1])
	}
}

func TestPlotSeriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "Trend", []Series{{Name: "A"}}, 10, 4, false); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80); got != 80-len("100% | ") {
		t.Fatalf("unexpected width %d", got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width, got %d", got)
	}
}

func TestSessionSeries(t *testing.T) {
	sessions := []model.SessionAggregate{
		{Recorded: 4, Passed: 2, WordsCorrect: 6, WordsTotal: 12},
		{Recorded: 4, Passed: 4, WordsCorrect: 12, WordsTotal: 12},
	}
	series := SessionSeries(sessions, 1)
	if series[0].Values[0] != 50 || series[0].Values[1] != 100 {
		t.Fatalf("unexpected pass rate: %v", series[0].Values)
	}
	if series[1].Values[0] != 50 || series[1].Values[1] != 100 {
		t.Fatalf("unexpected words correct: %v", series[1].Values)
	}
}

func TestRenderSessionsWithPlot(t *testing.T) {
	sessions := []model.SessionAggregate{
		{ID: "a", Trials: 2, Recorded: 2, Passed: 1, WordsCorrect: 3, WordsTotal: 6},
		{ID: "b", Trials: 2, Recorded: 2, Passed: 2, WordsCorrect: 6, WordsTotal: 6},
	}
	var buf bytes.Buffer
	if err := RenderSessions(&buf, sessions, Options{Window: 1, PlotWidth: 40}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "Trend over 2 sessions") || !strings.Contains(buf.String(), "Words correct") {
		t.Fatalf("expected plot in output:\n%s", buf.String())
	}
}
