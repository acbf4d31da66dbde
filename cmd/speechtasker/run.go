package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/speechtasker/internal/autojudge"
	"github.com/verte-zerg/speechtasker/internal/config"
	"github.com/verte-zerg/speechtasker/internal/matrix"
	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/recorder"
	"github.com/verte-zerg/speechtasker/internal/session"
	"github.com/verte-zerg/speechtasker/internal/store"
	"github.com/verte-zerg/speechtasker/internal/tui"
)

type runFlags struct {
	session    sessionFlags
	create     createFlags
	matrixFile string
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scored session in the terminal console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRunCmd(cmd, &f)
		},
	}
	registerRunFlags(cmd, &f)
	return cmd
}

func registerRunFlags(cmd *cobra.Command, f *runFlags) {
	registerSessionFlags(cmd, &f.session)
	registerCreateFlags(cmd, &f.create)
	cmd.Flags().StringVar(&f.matrixFile, "matrix", "", "pre-built matrix CSV to import")
	cmd.Flags().BoolVar(&f.session.writeMatrix, "write-matrix", false, "persist the built matrix as matrix_file.csv")
}

// resolveRunRequest merges config, protocol and flags into a build request.
// An explicit --matrix conflicts with explicit create inputs; otherwise
// explicit flags beat the config file's choice of mode.
func resolveRunRequest(cmd *cobra.Command, f *runFlags, cfg config.FileConfig) (matrix.Request, error) {
	flags := cmd.Flags()
	explicitImport := flags.Changed("matrix")
	explicitCreate := flags.Changed("sentences") || flags.Changed("protocol")
	if explicitImport && explicitCreate {
		return matrix.Request{}, fmt.Errorf("--matrix cannot be combined with --sentences or --protocol")
	}

	if err := loadCreateFlags(cmd, &f.create, &f.session, cfg); err != nil {
		return matrix.Request{}, err
	}
	if !explicitCreate {
		applyStringConfig(cmd, "matrix", &f.matrixFile, cfg.Import.MatrixFile)
	}
	if err := validateSession(&f.session); err != nil {
		return matrix.Request{}, err
	}

	s := &f.session
	if strings.TrimSpace(f.matrixFile) != "" {
		return matrix.Request{
			Mode: model.ModeImport,
			Import: model.ImportParams{
				MatrixFile:    f.matrixFile,
				Presentations: s.presentations,
				Randomize:     s.randomize,
				Seed:          s.seedPtr(),
				Write:         s.writeMatrix,
				OutputDir:     s.outDir,
			},
		}, nil
	}
	if strings.TrimSpace(f.create.sentenceFile) == "" {
		return matrix.Request{}, fmt.Errorf("one of --sentences, --protocol or --matrix is required")
	}
	if err := validateCreate(&f.create); err != nil {
		return matrix.Request{}, err
	}
	return matrix.Request{
		Mode:   model.ModeCreate,
		Create: createParams(&f.create, s, s.writeMatrix),
	}, nil
}

func sourcePath(req matrix.Request) string {
	if req.Mode == model.ModeImport {
		return req.Import.MatrixFile
	}
	return req.Create.SentenceFile
}

func runRunCmd(cmd *cobra.Command, f *runFlags) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	req, err := resolveRunRequest(cmd, f, fileCfg)
	if err != nil {
		return err
	}
	scorer, err := f.session.scorer()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builder := matrix.NewBuilder(matrix.WithLogger(logger), matrix.WithMetrics(metrics))
	trials, err := builder.Build(ctx, req)
	if err != nil {
		return err
	}
	if len(trials) == 0 {
		return fmt.Errorf("matrix %s has no trials", sourcePath(req))
	}

	if err := os.MkdirAll(f.session.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return err
	}

	info := model.SessionInfo{
		ID:         uuid.NewString(),
		Subject:    f.session.subject,
		Condition:  f.session.condition,
		Mode:       req.Mode,
		SourcePath: sourcePath(req),
		StartedAt:  time.Now(),
		Trials:     len(trials),
	}
	csvPath := filepath.Join(f.session.dataDir, recorder.FileName(info.Subject, info.Condition, info.StartedAt))
	csvRec, err := recorder.NewCSV(csvPath, recorder.DefaultColumns)
	if err != nil {
		// Best-effort close.
		_ = st.Close()
		return err
	}
	rec := recorder.Multi{recorder.NewStore(st, info, true), csvRec}

	sess, err := session.New(info, trials, session.Options{
		Recorder:  rec,
		Presenter: session.LogPresenter{AudioDir: f.session.audioDir, Log: logger},
		Scorer:    scorer,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		_ = rec.Close()
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logErrf("failed to close session: %v\n", err)
		}
	}()
	if err := sess.Start(ctx); err != nil {
		return err
	}
	console := tui.NewModel(ctx, sess, autojudge.New(), logger)
	program := tea.NewProgram(console, tea.WithAltScreen())
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run console: %w", err)
	}

	recorded, passed := sess.Summary()
	status := "stopped early"
	if console.Done() {
		status = "complete"
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Session %s %s: %d/%d trials recorded, %d passed\n",
		shortSessionID(info.ID), status, recorded, info.Trials, passed); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logErrf("Results in %s\n", csvPath)
	return nil
}

func shortSessionID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
