package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/speechtasker/internal/config"
	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/scoring"
)

type sessionFlags struct {
	subject       string
	condition     string
	audioDir      string
	dataDir       string
	unscored      string
	randomize     bool
	writeMatrix   bool
	presentations int
	seed          int64
	seedSet       bool
	outDir        string
}

type createFlags struct {
	sentenceFile     string
	lists            []int
	sentencesPerList int
	levels           []float64
	speakers         []int
	protocol         string
}

func registerSessionFlags(cmd *cobra.Command, f *sessionFlags) {
	cmd.Flags().StringVar(&f.subject, "subject", defaultSubject, "subject identifier")
	cmd.Flags().StringVar(&f.condition, "condition", defaultCondition, "test condition label")
	cmd.Flags().StringVar(&f.audioDir, "audio-dir", "", "directory holding the stimulus audio files")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", config.DefaultDataDir(), "directory for result files")
	cmd.Flags().StringVar(&f.unscored, "unscored", defaultUnscored, "how unjudged key words count: exclude or incorrect")
	cmd.Flags().BoolVar(&f.randomize, "randomize", false, "shuffle trials after expansion")
	cmd.Flags().IntVar(&f.presentations, "presentations", defaultPresentations, "copies of the matrix per session")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "random seed for reproducible shuffles")
	cmd.Flags().StringVar(&f.outDir, "out", ".", "directory the matrix file is written to")
}

func registerCreateFlags(cmd *cobra.Command, f *createFlags) {
	cmd.Flags().StringVar(&f.sentenceFile, "sentences", "", "sentence bank CSV")
	cmd.Flags().IntSliceVar(&f.lists, "lists", defaultLists, "lists to draw from")
	cmd.Flags().IntVar(&f.sentencesPerList, "sentences-per-list", defaultSentencesPerList, "sentences kept per list")
	cmd.Flags().Float64SliceVar(&f.levels, "levels", defaultLevels, "presentation levels in dB, one for all lists or one per list")
	cmd.Flags().IntSliceVar(&f.speakers, "speakers", defaultSpeakers, "speakers, one for all lists or one per list")
	cmd.Flags().StringVar(&f.protocol, "protocol", "", "YAML protocol file with a create recipe")
}

func applySessionConfig(cmd *cobra.Command, f *sessionFlags, cfg config.SessionConfig) {
	applyStringConfig(cmd, "subject", &f.subject, cfg.Subject)
	applyStringConfig(cmd, "condition", &f.condition, cfg.Condition)
	applyStringConfig(cmd, "audio-dir", &f.audioDir, cfg.AudioDir)
	applyStringConfig(cmd, "data-dir", &f.dataDir, cfg.DataDir)
	applyStringConfig(cmd, "unscored", &f.unscored, cfg.Unscored)
	applyBoolConfig(cmd, "randomize", &f.randomize, cfg.Randomize)
	applyIntConfig(cmd, "presentations", &f.presentations, cfg.Presentations)
	if cmd.Flags().Lookup("write-matrix") != nil {
		applyBoolConfig(cmd, "write-matrix", &f.writeMatrix, cfg.WriteMatrix)
	}
	f.seedSet = cmd.Flags().Changed("seed")
}

func applyCreateConfig(cmd *cobra.Command, f *createFlags, cfg config.CreateConfig) {
	applyStringConfig(cmd, "sentences", &f.sentenceFile, cfg.SentenceFile)
	applyIntsConfig(cmd, "lists", &f.lists, cfg.Lists)
	applyIntConfig(cmd, "sentences-per-list", &f.sentencesPerList, cfg.SentencesPerList)
	applyFloatsConfig(cmd, "levels", &f.levels, cfg.Levels)
	applyIntsConfig(cmd, "speakers", &f.speakers, cfg.Speakers)
}

// applyProtocol layers a protocol file over the config file. Flags given on
// the command line still win.
func applyProtocol(cmd *cobra.Command, f *createFlags, s *sessionFlags, p *config.Protocol) {
	applyStringConfig(cmd, "sentences", &f.sentenceFile, &p.SentenceFile)
	applyIntsConfig(cmd, "lists", &f.lists, p.Lists)
	applyIntConfig(cmd, "sentences-per-list", &f.sentencesPerList, &p.SentencesPerList)
	applyFloatsConfig(cmd, "levels", &f.levels, p.Levels)
	applyIntsConfig(cmd, "speakers", &f.speakers, p.Speakers)
	applyIntConfig(cmd, "presentations", &s.presentations, p.Presentations)
	if p.Randomize {
		applyBoolConfig(cmd, "randomize", &s.randomize, &p.Randomize)
	}
	if p.Seed != nil && !cmd.Flags().Changed("seed") {
		s.seed = *p.Seed
		s.seedSet = true
	}
}

func loadCreateFlags(cmd *cobra.Command, f *createFlags, s *sessionFlags, cfg config.FileConfig) error {
	applySessionConfig(cmd, s, cfg.Session)
	applyCreateConfig(cmd, f, cfg.Create)
	if f.protocol == "" {
		return nil
	}
	p, err := config.LoadProtocol(f.protocol)
	if err != nil {
		return err
	}
	applyProtocol(cmd, f, s, p)
	logger.Debug("loaded protocol", zap.String("path", f.protocol), zap.String("name", p.Name))
	return nil
}

func (s *sessionFlags) seedPtr() *int64 {
	if !s.seedSet {
		return nil
	}
	seed := s.seed
	return &seed
}

func (s *sessionFlags) scorer() (scoring.Scorer, error) {
	policy, err := scoring.ParseUnscoredPolicy(s.unscored)
	if err != nil {
		return scoring.Scorer{}, fmt.Errorf("--unscored: %w", err)
	}
	return scoring.Scorer{Unscored: policy}, nil
}

func validateSession(s *sessionFlags) error {
	if strings.TrimSpace(s.subject) == "" {
		return fmt.Errorf("--subject must not be empty")
	}
	if strings.TrimSpace(s.condition) == "" {
		return fmt.Errorf("--condition must not be empty")
	}
	if s.presentations < 1 {
		return fmt.Errorf("--presentations must be >= 1")
	}
	if _, err := s.scorer(); err != nil {
		return err
	}
	return nil
}

func validateCreate(f *createFlags) error {
	if strings.TrimSpace(f.sentenceFile) == "" {
		return fmt.Errorf("--sentences (or a protocol file) is required")
	}
	if f.sentencesPerList < 1 {
		return fmt.Errorf("--sentences-per-list must be >= 1")
	}
	return nil
}

func createParams(f *createFlags, s *sessionFlags, write bool) model.CreateParams {
	return model.CreateParams{
		SentenceFile:     f.sentenceFile,
		Lists:            f.lists,
		SentencesPerList: f.sentencesPerList,
		Levels:           f.levels,
		Speakers:         f.speakers,
		Presentations:    s.presentations,
		Randomize:        s.randomize,
		Seed:             s.seedPtr(),
		Write:            write,
		OutputDir:        s.outDir,
	}
}
