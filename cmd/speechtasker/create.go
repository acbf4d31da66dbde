package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/speechtasker/internal/config"
	"github.com/verte-zerg/speechtasker/internal/matrix"
	"github.com/verte-zerg/speechtasker/internal/report"
)

func newCreateCmd() *cobra.Command {
	var (
		sf          sessionFlags
		cf          createFlags
		printTrials bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Build a matrix file from a sentence bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCreateCmd(cmd, &sf, &cf, printTrials)
		},
	}
	registerSessionFlags(cmd, &sf)
	registerCreateFlags(cmd, &cf)
	cmd.Flags().BoolVar(&printTrials, "print", false, "list the built trials")
	return cmd
}

func runCreateCmd(cmd *cobra.Command, sf *sessionFlags, cf *createFlags, printTrials bool) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := loadCreateFlags(cmd, cf, sf, fileCfg); err != nil {
		return err
	}
	if err := validateSession(sf); err != nil {
		return err
	}
	if err := validateCreate(cf); err != nil {
		return err
	}

	builder := matrix.NewBuilder(matrix.WithLogger(logger), matrix.WithMetrics(metrics))
	trials, err := builder.Create(context.Background(), createParams(cf, sf, true))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Built %d trials from lists %v (%d per list, %d presentation(s))\n",
		len(trials), cf.lists, cf.sentencesPerList, sf.presentations); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if printTrials {
		if err := report.RenderTrials(out, trials); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	logErrf("Wrote %s\n", matrix.OutputPath(sf.outDir))
	return nil
}
