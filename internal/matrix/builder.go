package matrix

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/observe"
	"github.com/verte-zerg/speechtasker/internal/stimulus"
)

const (
	stageValidate      = "validate"
	stageLoad          = "load"
	stageSubset        = "subset"
	stageTruncate      = "truncate"
	stageAssignLevel   = "assign level"
	stageAssignSpeaker = "assign speaker"
	stageExpand        = "expand"
	stageWrite         = "write"
)

// Request selects a build variant and carries its parameters.
type Request struct {
	Mode   model.Mode
	Create model.CreateParams
	Import model.ImportParams
}

// Builder runs the create and import pipelines.
type Builder struct {
	log     *zap.Logger
	metrics *observe.Metrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for pipeline stages.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// WithMetrics sets the metric instruments used to count builds.
func WithMetrics(m *observe.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// NewBuilder returns a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{log: zap.NewNop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build dispatches req to Create or Import.
func (b *Builder) Build(ctx context.Context, req Request) (model.TrialSet, error) {
	switch req.Mode {
	case model.ModeCreate:
		return b.Create(ctx, req.Create)
	case model.ModeImport:
		return b.Import(ctx, req.Import)
	default:
		err := &MatrixBuildError{Mode: req.Mode, Stage: stageValidate, Err: &InvalidParameterError{Name: "mode", Reason: fmt.Sprintf("unsupported mode %d", int(req.Mode))}}
		b.metrics.RecordBuild(ctx, req.Mode.String(), err)
		return nil, err
	}
}

// Create builds a matrix from a sentence bank: load, subset, truncate,
// assign levels and speakers, expand and optionally randomize. Either the
// complete set is returned or an error wrapping the failing stage.
func (b *Builder) Create(ctx context.Context, p model.CreateParams) (trials model.TrialSet, err error) {
	defer func() { b.finish(ctx, model.ModeCreate, err) }()

	fail := func(stage string, cause error) (model.TrialSet, error) {
		return nil, &MatrixBuildError{Mode: model.ModeCreate, Stage: stage, Err: cause}
	}

	if verr := validateCreate(p); verr != nil {
		return fail(stageValidate, verr)
	}

	rows, lerr := stimulus.LoadStimuli(p.SentenceFile)
	if lerr != nil {
		return fail(stageLoad, lerr)
	}
	b.log.Debug("loaded sentence bank", zap.String("path", p.SentenceFile), zap.Int("rows", len(rows)))

	subset, serr := Subset(rows, p.Lists)
	if serr != nil {
		return fail(stageSubset, serr)
	}
	truncated, terr := Truncate(subset, p.SentencesPerList)
	if terr != nil {
		return fail(stageTruncate, terr)
	}
	b.log.Debug("selected sentences", zap.Ints("lists", p.Lists), zap.Int("rows", len(truncated)))

	withLevels, aerr := Assign(toTrials(truncated), model.AssignmentSpec[float64]{Values: p.Levels, TargetLists: p.Lists}, "levels", setLevel)
	if aerr != nil {
		return fail(stageAssignLevel, aerr)
	}
	withSpeakers, aerr := Assign(withLevels, model.AssignmentSpec[int]{Values: p.Speakers, TargetLists: p.Lists}, "speakers", setSpeaker)
	if aerr != nil {
		return fail(stageAssignSpeaker, aerr)
	}

	expanded, eerr := Expand(withSpeakers, p.Presentations)
	if eerr != nil {
		return fail(stageExpand, eerr)
	}
	trials = b.maybeShuffle(expanded, p.Randomize, p.Seed)

	if p.Write {
		if werr := b.write(p.OutputDir, trials); werr != nil {
			return fail(stageWrite, werr)
		}
	}
	return trials, nil
}

// Import loads a complete matrix, expands it and optionally randomizes it.
// Levels and speakers come from the file.
func (b *Builder) Import(ctx context.Context, p model.ImportParams) (trials model.TrialSet, err error) {
	defer func() { b.finish(ctx, model.ModeImport, err) }()

	fail := func(stage string, cause error) (model.TrialSet, error) {
		return nil, &MatrixBuildError{Mode: model.ModeImport, Stage: stage, Err: cause}
	}

	if p.Presentations < 1 {
		return fail(stageValidate, &InvalidParameterError{Name: "presentations", Reason: "must be >= 1"})
	}

	loaded, lerr := stimulus.LoadMatrix(p.MatrixFile)
	if lerr != nil {
		return fail(stageLoad, lerr)
	}
	b.log.Debug("loaded matrix", zap.String("path", p.MatrixFile), zap.Int("rows", len(loaded)))

	expanded, eerr := Expand(loaded, p.Presentations)
	if eerr != nil {
		return fail(stageExpand, eerr)
	}
	trials = b.maybeShuffle(expanded, p.Randomize, p.Seed)

	if p.Write {
		if werr := b.write(p.OutputDir, trials); werr != nil {
			return fail(stageWrite, werr)
		}
	}
	return trials, nil
}

// OutputPath returns the location a matrix is written to for dir.
func OutputPath(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, stimulus.MatrixFileName)
}

func (b *Builder) maybeShuffle(trials model.TrialSet, enabled bool, seed *int64) model.TrialSet {
	if !enabled {
		return trials
	}
	shuffled := randomizerFor(seed).Shuffle(trials)
	reindex(shuffled)
	b.log.Debug("randomized trials", zap.Int("trials", len(shuffled)))
	return shuffled
}

func (b *Builder) write(dir string, trials model.TrialSet) error {
	path := OutputPath(dir)
	if err := stimulus.WriteMatrix(path, trials); err != nil {
		return err
	}
	b.log.Info("wrote matrix", zap.String("path", path), zap.Int("trials", len(trials)))
	return nil
}

func (b *Builder) finish(ctx context.Context, mode model.Mode, err error) {
	b.metrics.RecordBuild(ctx, mode.String(), err)
	if err != nil {
		b.log.Error("matrix build failed", zap.Stringer("mode", mode), zap.Error(err))
	}
}

func validateCreate(p model.CreateParams) error {
	if len(p.Lists) == 0 {
		return &InvalidParameterError{Name: "lists", Reason: "at least one list is required"}
	}
	seen := make(map[int]struct{}, len(p.Lists))
	for _, l := range p.Lists {
		if _, dup := seen[l]; dup {
			return &InvalidParameterError{Name: "lists", Reason: fmt.Sprintf("list %d is listed more than once", l)}
		}
		seen[l] = struct{}{}
	}
	if p.SentencesPerList < 1 {
		return &InvalidParameterError{Name: "sentences per list", Reason: "must be >= 1"}
	}
	if p.Presentations < 1 {
		return &InvalidParameterError{Name: "presentations", Reason: "must be >= 1"}
	}
	if n := len(p.Levels); n != 1 && n != len(p.Lists) {
		return &CardinalityMismatchError{Field: "levels", Values: n, Lists: len(p.Lists)}
	}
	if n := len(p.Speakers); n != 1 && n != len(p.Lists) {
		return &CardinalityMismatchError{Field: "speakers", Values: n, Lists: len(p.Lists)}
	}
	return nil
}
