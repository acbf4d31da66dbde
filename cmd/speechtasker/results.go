package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/speechtasker/internal/config"
	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/report"
	"github.com/verte-zerg/speechtasker/internal/resultsui"
	"github.com/verte-zerg/speechtasker/internal/store"
)

const (
	defaultWindow    = 5
	defaultPlotWidth = 80
)

type resultsFlags struct {
	subject     string
	condition   string
	since       string
	last        int
	session     string
	window      int
	plot        bool
	interactive bool
	dbPath      string
}

func newResultsCmd() *cobra.Command {
	var f resultsFlags
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show recorded sessions and trial results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResultsCmd(cmd, &f)
		},
	}
	cmd.Flags().StringVar(&f.subject, "subject", "", "only sessions for this subject")
	cmd.Flags().StringVar(&f.condition, "condition", "", "only sessions for this condition")
	cmd.Flags().StringVar(&f.since, "since", "", "only sessions started on or after YYYY-MM-DD")
	cmd.Flags().IntVar(&f.last, "last", 0, "only the N most recent sessions")
	cmd.Flags().StringVar(&f.session, "session", "", "show the trials of one session (id or prefix)")
	cmd.Flags().IntVar(&f.window, "window", defaultWindow, "moving-average window for the pass-rate trend")
	cmd.Flags().BoolVar(&f.plot, "plot", false, "draw the pass-rate trend as a curve")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "browse sessions in a terminal UI")
	cmd.Flags().StringVar(&f.dbPath, "db", config.DefaultDBPath(), "results database path")
	return cmd
}

func validateResults(f *resultsFlags) (model.SessionFilter, error) {
	filter := model.SessionFilter{
		Subject:   strings.TrimSpace(f.subject),
		Condition: strings.TrimSpace(f.condition),
		Last:      f.last,
	}
	if f.last < 0 {
		return filter, fmt.Errorf("--last must be >= 0")
	}
	if f.window < 1 {
		return filter, fmt.Errorf("--window must be >= 1")
	}
	if f.since != "" {
		t, err := time.ParseInLocation("2006-01-02", f.since, time.Local)
		if err != nil {
			return filter, fmt.Errorf("--since must be YYYY-MM-DD: %w", err)
		}
		filter.Since = &t
	}
	return filter, nil
}

func runResultsCmd(cmd *cobra.Command, f *resultsFlags) error {
	filter, err := validateResults(f)
	if err != nil {
		return err
	}
	st, err := store.Open(f.dbPath)
	if err != nil {
		return err
	}
	defer func() {
		// Best-effort close.
		_ = st.Close()
	}()

	ctx := context.Background()
	if f.interactive {
		browser := resultsui.NewModel(ctx, st, resultsui.Config{Filter: filter, Window: f.window})
		if _, err := tea.NewProgram(browser, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("failed to run results browser: %w", err)
		}
		return nil
	}

	out := cmd.OutOrStdout()
	opts := report.Options{Color: report.ShouldUseColor(os.Stdout), Window: f.window}
	if f.plot {
		opts.PlotWidth = report.TerminalWidth(os.Stdout, defaultPlotWidth)
	}

	if f.session != "" {
		id, err := st.FindSession(ctx, f.session)
		if err != nil {
			return err
		}
		rows, err := st.ListResults(ctx, id)
		if err != nil {
			return err
		}
		return report.RenderResults(out, rows, opts)
	}

	sessions, err := report.Sessions(ctx, st, filter)
	if err != nil {
		return err
	}
	return report.RenderSessions(out, sessions, opts)
}
