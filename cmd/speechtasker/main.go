// Package main provides the CLI entrypoint for speechtasker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/speechtasker/internal/config"
	"github.com/verte-zerg/speechtasker/internal/logging"
	"github.com/verte-zerg/speechtasker/internal/observe"
)

const (
	defaultSubject          = "999"
	defaultCondition        = "test"
	defaultPresentations    = 1
	defaultSentencesPerList = 5
	defaultUnscored         = "exclude"
)

var (
	defaultLists    = []int{1, 2}
	defaultLevels   = []float64{70, 75}
	defaultSpeakers = []int{1}
)

var (
	verbose bool
	logger  = zap.NewNop()
	// metrics is nil until the root command installs a provider; nil records
	// nothing.
	metrics  *observe.Metrics
	provider *observe.Provider
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	finish()
	if err != nil {
		os.Exit(1)
	}
}

func setupTelemetry(opts logging.Options) error {
	l, err := logging.New(opts)
	if err != nil {
		return err
	}
	logger = l
	p, err := observe.InitProvider(observe.ProviderConfig{Logger: logger})
	if err != nil {
		return err
	}
	m, err := observe.NewMetrics(p.MeterProvider())
	if err != nil {
		_ = p.Shutdown(context.Background())
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	provider, metrics = p, m
	return nil
}

// finish logs the metric totals and flushes the logger. It is safe to call
// more than once.
func finish() {
	if provider != nil {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to shut down metrics", zap.Error(err))
		}
		provider, metrics = nil, nil
	}
	_ = logger.Sync()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "speechtasker",
		Short:         "Speech-in-noise sentence test runner",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts := logging.Options{Verbose: verbose}
			// The console owns the terminal; keep log output off it.
			if cmd.Name() == "run" {
				opts.Path = config.DefaultLogPath()
			}
			return setupTelemetry(opts)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			finish()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newResultsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# speechtasker configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# subject = %q            # Subject identifier
# condition = %q         # Test condition label
# audio-dir = ""             # Directory holding the stimulus audio files
# data-dir = %q
# randomize = false          # Shuffle trials after expansion
# presentations = %d          # Copies of the matrix per session
# write-matrix = false       # Persist the built matrix as matrix_file.csv
# unscored = %q         # exclude | incorrect

[create]
# sentence-file = ""         # Sentence bank CSV
# lists = [1, 2]             # Lists to draw from
# sentences-per-list = %d     # Sentences kept per list
# levels = [70.0, 75.0]      # One level for all lists or one per list (dB)
# speakers = [1]             # One speaker for all lists or one per list

[import]
# matrix-file = ""           # Pre-built matrix CSV
`,
		defaultSubject,
		defaultCondition,
		config.DefaultDataDir(),
		defaultPresentations,
		defaultUnscored,
		defaultSentencesPerList,
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntsConfig(cmd *cobra.Command, name string, target *[]int, value []int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]int(nil), value...)
}

func applyFloatsConfig(cmd *cobra.Command, name string, target *[]float64, value []float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]float64(nil), value...)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
