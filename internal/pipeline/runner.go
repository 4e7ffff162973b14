package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/youruser/promoapp/internal/config"
	"github.com/youruser/promoapp/internal/discover"
	imagepkg "github.com/youruser/promoapp/internal/image"
	"github.com/youruser/promoapp/internal/logging"
)

// Step names a unit of work within a group.
type Step string

const (
	StepPromo  Step = "promo"
	StepAction Step = "action"
)

// Status is the outcome of one step.
type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
)

// Result records what happened to one step of one group.
type Result struct {
	Group  string
	Step   Step
	Status Status
	Output string
	Reason string
}

// Report summarizes a run.
type Report struct {
	RunID   string
	Matcher string
	Results []Result
}

// Written counts the outputs produced.
func (r *Report) Written() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusWritten {
			n++
		}
	}
	return n
}

// Options configures a Runner.
type Options struct {
	SourceDir string
	OutputDir string
	Policy    string
	Composer  *imagepkg.Composer
}

// OptionsFromConfig builds runner options, generating the QR stamp when one
// is configured.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	composer := imagepkg.NewComposer()
	composer.Layout = cfg.Layout()
	composer.Quality = cfg.JPEG.Quality
	if cfg.Stamp.QRText != "" {
		level, err := imagepkg.ParseQRLevel(cfg.Stamp.QRLevel)
		if err != nil {
			return Options{}, fmt.Errorf("stamp: %w", err)
		}
		qr, err := imagepkg.GenerateQRImage(cfg.Stamp.QRText, cfg.Stamp.QRSize, level)
		if err != nil {
			return Options{}, fmt.Errorf("generate qr stamp: %w", err)
		}
		composer.Stamp = qr
		composer.StampMargin = cfg.Stamp.Margin
	}
	return Options{
		SourceDir: cfg.Paths.SourceDir,
		OutputDir: cfg.Paths.OutputDir,
		Policy:    cfg.Sources.Policy,
		Composer:  composer,
	}, nil
}

// Runner processes groups sequentially.
type Runner struct {
	opts   Options
	logger *zap.Logger
}

// NewRunner validates opts and returns a Runner.
func NewRunner(opts Options, logger *zap.Logger) (*Runner, error) {
	if opts.SourceDir == "" || opts.OutputDir == "" {
		return nil, errors.New("runner requires source and output directories")
	}
	if opts.Composer == nil {
		opts.Composer = imagepkg.NewComposer()
	}
	if err := opts.Composer.Layout.Validate(); err != nil {
		return nil, err
	}
	switch opts.Policy {
	case "":
		opts.Policy = config.PolicyDeleteOnLoad
	case config.PolicyDeleteOnLoad, config.PolicyDeleteAfterSave, config.PolicyKeep:
	default:
		return nil, fmt.Errorf("unsupported source policy %q", opts.Policy)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{opts: opts, logger: logger}, nil
}

// Run discovers groups with m and processes each in order. It returns the
// report so far together with any error that aborted the run.
func (r *Runner) Run(ctx context.Context, m discover.Matcher) (*Report, error) {
	logger, runID := logging.WithRun(r.logger)
	logger = logger.With(zap.String("layout", m.Name()))
	report := &Report{RunID: runID, Matcher: m.Name()}

	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return report, fmt.Errorf("create output directory: %w", err)
	}
	lock, err := lockOutputDir(r.opts.OutputDir)
	if err != nil {
		return report, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock", zap.Error(err))
		}
	}()

	groups, err := m.Discover(r.opts.SourceDir)
	if err != nil {
		return report, fmt.Errorf("discover groups: %w", err)
	}
	logger.Info("run started",
		zap.String("source", r.opts.SourceDir),
		zap.String("output", r.opts.OutputDir),
		zap.String("policy", r.opts.Policy),
		zap.Int("groups", len(groups)))

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		glog := logger.With(zap.String("group", g.ID))
		if err := r.processGroup(ctx, g, glog, report); err != nil {
			glog.Error("run aborted", zap.Error(err))
			return report, err
		}
	}

	logger.Info("run finished", zap.Int("written", report.Written()), zap.Int("steps", len(report.Results)))
	return report, nil
}

func (r *Runner) processGroup(ctx context.Context, g discover.Group, logger *zap.Logger, report *Report) error {
	if g.Missing != nil {
		logger.Warn("missing directory, skipping", zap.String("path", g.Missing.Path))
		report.add(g, StepPromo, "", g.Missing)
		if g.WantsAction() {
			report.add(g, StepAction, "", g.Missing)
		}
		return nil
	}

	if g.HasPair() {
		out := filepath.Join(r.opts.OutputDir, g.PromoName)
		logger.Info("composing front and back", zap.String("output", g.PromoName))
		if err := r.composePromo(g, out, logger); err != nil {
			if !imagepkg.IsMissing(err) {
				return err
			}
			logger.Warn("source vanished, skipping composite", zap.Error(err))
			report.add(g, StepPromo, "", err)
		} else {
			report.add(g, StepPromo, out, nil)
		}
	} else {
		missing := g.MissingPair
		if missing == nil {
			missing = &imagepkg.MissingFileError{Path: g.Dir, Role: "front/back"}
		}
		logger.Warn("missing front/back, skipping composite", zap.String("path", missing.Path))
		report.add(g, StepPromo, "", missing)
	}

	if !g.WantsAction() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.Action == "" {
		logger.Warn("no action PNG found, skipping action", zap.String("dir", g.Dir))
		report.add(g, StepAction, "", &imagepkg.MissingFileError{Path: g.Dir, Role: "action"})
		return nil
	}

	out := filepath.Join(r.opts.OutputDir, g.ActionName)
	logger.Info("saving action at half scale", zap.String("output", g.ActionName))
	if err := r.saveAction(g, out, logger); err != nil {
		if !imagepkg.IsMissing(err) {
			return err
		}
		logger.Warn("source vanished, skipping action", zap.Error(err))
		report.add(g, StepAction, "", err)
		return nil
	}
	report.add(g, StepAction, out, nil)
	return nil
}

func (r *Runner) composePromo(g discover.Group, out string, logger *zap.Logger) error {
	c := r.opts.Composer
	front, err := r.loadSquare(g.Front, logger)
	if err != nil {
		return err
	}
	back, err := r.loadSquare(g.Back, logger)
	if err != nil {
		return err
	}
	canvas, err := c.Promo(front, back)
	if err != nil {
		return err
	}
	if err := c.Save(out, canvas); err != nil {
		return err
	}
	r.release(logger, g.Front, g.Back)
	return nil
}

func (r *Runner) saveAction(g discover.Group, out string, logger *zap.Logger) error {
	img, err := r.load(g.Action, logger)
	if err != nil {
		return err
	}
	if err := r.opts.Composer.Save(out, r.opts.Composer.Action(img)); err != nil {
		return err
	}
	r.release(logger, g.Action)
	return nil
}

func (r *Runner) loadSquare(path string, logger *zap.Logger) (*image.NRGBA, error) {
	img, err := r.load(path, logger)
	if err != nil {
		return nil, err
	}
	scaled, err := r.opts.Composer.Square(img)
	if err != nil {
		return nil, imagepkg.WithPath(err, path)
	}
	return scaled, nil
}

func (r *Runner) load(path string, logger *zap.Logger) (*image.NRGBA, error) {
	if r.opts.Policy != config.PolicyDeleteOnLoad {
		return imagepkg.Load(path)
	}
	img, err := imagepkg.LoadAndRemove(path)
	if err != nil {
		return nil, err
	}
	logger.Info("deleted source file", zap.String("path", path))
	return img, nil
}

// release removes sources once their output exists, under delete-after-save.
func (r *Runner) release(logger *zap.Logger, paths ...string) {
	if r.opts.Policy != config.PolicyDeleteAfterSave {
		return
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			logger.Warn("failed to delete source file", zap.String("path", p), zap.Error(err))
			continue
		}
		logger.Info("deleted source file", zap.String("path", p))
	}
}

func (r *Report) add(g discover.Group, step Step, output string, skip error) {
	res := Result{Group: g.ID, Step: step, Status: StatusWritten, Output: output}
	if skip != nil {
		res.Status = StatusSkipped
		res.Reason = skip.Error()
	}
	r.Results = append(r.Results, res)
}
