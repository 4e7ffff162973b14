package pipeline_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/youruser/promoapp/internal/config"
	"github.com/youruser/promoapp/internal/discover"
	imagepkg "github.com/youruser/promoapp/internal/image"
	"github.com/youruser/promoapp/internal/pipeline"
	"github.com/youruser/promoapp/internal/testsupport"
)

var (
	red  = color.NRGBA{R: 0xff, A: 0xff}
	blue = color.NRGBA{B: 0xff, A: 0xff}
)

type env struct {
	src  string
	out  string
	logs *observer.ObservedLogs
}

func newEnv(t *testing.T) *env {
	t.Helper()
	base := t.TempDir()
	return &env{src: filepath.Join(base, "src"), out: filepath.Join(base, "out")}
}

func (e *env) runner(t *testing.T, policy string, layout imagepkg.Layout) *pipeline.Runner {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	e.logs = logs
	composer := imagepkg.NewComposer()
	composer.Layout = layout
	r, err := pipeline.NewRunner(pipeline.Options{
		SourceDir: e.src,
		OutputDir: e.out,
		Policy:    policy,
		Composer:  composer,
	}, zap.New(core))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func (e *env) path(rel string) string { return filepath.Join(e.src, rel) }

func (e *env) warned(msg string) int { return e.logs.FilterMessage(msg).Len() }

var small = imagepkg.Layout{Width: 200, Height: 300, Edge: 160}

func jpegSize(t *testing.T, path string) image.Point {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg output, got %s", format)
	}
	return image.Pt(cfg.Width, cfg.Height)
}

func TestBucketsEndToEnd(t *testing.T) {
	e := newEnv(t)
	testsupport.WritePNG(t, e.path("1/Front_a.png"), 1600, 1600, red)
	testsupport.WritePNG(t, e.path("1/Back_b.png"), 1600, 1600, blue)
	testsupport.WritePNG(t, e.path("3/Front_c.png"), 8, 8, red)
	testsupport.WritePNG(t, e.path("3/Back_d.png"), 8, 8, blue)

	r := e.runner(t, "", imagepkg.DefaultLayout())
	report, err := r.Run(context.Background(), discover.BucketMatcher{Count: 5, Base: "DEMO"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	out1 := filepath.Join(e.out, "DEMO_PROMOTIONAL_1.jpg")
	if got := jpegSize(t, out1); got != image.Pt(2000, 3000) {
		t.Fatalf("unexpected composite size %v", got)
	}
	if got := jpegSize(t, filepath.Join(e.out, "DEMO_PROMOTIONAL_3.jpg")); got != image.Pt(2000, 3000) {
		t.Fatalf("unexpected composite size %v for group 3", got)
	}
	if testsupport.Exists(t, filepath.Join(e.out, "DEMO_PROMOTIONAL_2.jpg")) {
		t.Fatal("group 2 has no directory and must produce nothing")
	}
	for _, src := range []string{"1/Front_a.png", "1/Back_b.png", "3/Front_c.png", "3/Back_d.png"} {
		if testsupport.Exists(t, e.path(src)) {
			t.Fatalf("expected %s to be deleted", src)
		}
	}

	if n := e.warned("no action PNG found, skipping action"); n != 2 {
		t.Fatalf("expected action skips for groups 1 and 3, got %d", n)
	}
	if n := e.warned("missing directory, skipping"); n != 3 {
		t.Fatalf("expected groups 2, 4 and 5 to be skipped, got %d", n)
	}
	if report.Written() != 2 {
		t.Fatalf("expected 2 outputs, got %d: %+v", report.Written(), report.Results)
	}
	if report.RunID == "" || report.Matcher != "buckets" {
		t.Fatalf("unexpected report header %+v", report)
	}
}

func TestBucketsActionShot(t *testing.T) {
	e := newEnv(t)
	testsupport.WritePNG(t, e.path("1/lifestyle.png"), 51, 30, red)
	testsupport.WritePNG(t, e.path("2/tiny.png"), 1, 1, red)

	r := e.runner(t, "", small)
	if _, err := r.Run(context.Background(), discover.BucketMatcher{Count: 2, Base: "DEMO"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := jpegSize(t, filepath.Join(e.out, "DEMO_PROMOTIONAL_ACTION_1.jpg")); got != image.Pt(25, 15) {
		t.Fatalf("unexpected action size %v", got)
	}
	if got := jpegSize(t, filepath.Join(e.out, "DEMO_PROMOTIONAL_ACTION_2.jpg")); got != image.Pt(1, 1) {
		t.Fatalf("1x1 input must stay 1x1, got %v", got)
	}
	if testsupport.Exists(t, e.path("1/lifestyle.png")) {
		t.Fatal("action source must be deleted")
	}
	if n := e.warned("missing front/back, skipping composite"); n != 2 {
		t.Fatalf("expected composite skips, got %d", n)
	}
}

func TestPairsSkipsMissingBack(t *testing.T) {
	e := newEnv(t)
	testsupport.WritePNG(t, e.path("Front 2, Ace.png"), 10, 10, red)
	testsupport.WritePNG(t, e.path("Front 2, King.png"), 10, 10, red)
	testsupport.WritePNG(t, e.path("Back 2, King.png"), 10, 10, blue)

	r := e.runner(t, "", small)
	report, err := r.Run(context.Background(), discover.NameMatcher{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if testsupport.Exists(t, filepath.Join(e.out, "Promotional_Ace.jpg")) {
		t.Fatal("Ace has no back image and must produce nothing")
	}
	if !testsupport.Exists(t, e.path("Front 2, Ace.png")) {
		t.Fatal("unpaired front must not be touched")
	}
	if got := jpegSize(t, filepath.Join(e.out, "Promotional_King.jpg")); got != image.Pt(200, 300) {
		t.Fatalf("unexpected King composite size %v", got)
	}
	if e.warned("missing front/back, skipping composite") != 1 {
		t.Fatal("expected one skip warning for Ace")
	}
	if len(report.Results) != 2 {
		t.Fatalf("name matching has no action steps, got %+v", report.Results)
	}
}

func TestFormatErrorAbortsRunWithoutDeleting(t *testing.T) {
	e := newEnv(t)
	testsupport.WriteJPEG(t, e.path("1/Front_a.png"), 10, 10, red)
	testsupport.WritePNG(t, e.path("1/Back_b.png"), 10, 10, blue)
	testsupport.WritePNG(t, e.path("2/Front_a.png"), 10, 10, red)
	testsupport.WritePNG(t, e.path("2/Back_b.png"), 10, 10, blue)

	r := e.runner(t, "", small)
	_, err := r.Run(context.Background(), discover.BucketMatcher{Count: 2, Base: "DEMO"})
	var fe *imagepkg.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if !testsupport.Exists(t, e.path("1/Front_a.png")) || !testsupport.Exists(t, e.path("1/Back_b.png")) {
		t.Fatal("a failed format check must leave sources in place")
	}
	if testsupport.Exists(t, filepath.Join(e.out, "DEMO_PROMOTIONAL_2.jpg")) {
		t.Fatal("the run must stop at the first validation error")
	}
}

func TestShapeErrorAbortsAfterDestructiveLoad(t *testing.T) {
	e := newEnv(t)
	testsupport.WritePNG(t, e.path("1/Front_a.png"), 10, 12, red)
	testsupport.WritePNG(t, e.path("1/Back_b.png"), 10, 10, blue)

	r := e.runner(t, config.PolicyDeleteOnLoad, small)
	_, err := r.Run(context.Background(), discover.BucketMatcher{Count: 1, Base: "DEMO"})
	var se *imagepkg.ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
	if se.Path != e.path("1/Front_a.png") {
		t.Fatalf("expected error to name the front file, got %q", se.Path)
	}
	if testsupport.Exists(t, e.path("1/Front_a.png")) {
		t.Fatal("front was loaded and must be gone under delete-on-load")
	}
	if !testsupport.Exists(t, e.path("1/Back_b.png")) {
		t.Fatal("back was never loaded and must survive")
	}
	if testsupport.Exists(t, filepath.Join(e.out, "DEMO_PROMOTIONAL_1.jpg")) {
		t.Fatal("no partial output may be written")
	}
}

func TestDeleteAfterSaveKeepsSourcesOnFailure(t *testing.T) {
	e := newEnv(t)
	testsupport.WritePNG(t, e.path("1/Front_a.png"), 10, 10, red)
	testsupport.WritePNG(t, e.path("1/Back_b.png"), 10, 12, blue)

	r := e.runner(t, config.PolicyDeleteAfterSave, small)
	if _, err := r.Run(context.Background(), discover.BucketMatcher{Count: 1, Base: "DEMO"}); !imagepkg.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, p := range []string{"1/Front_a.png", "1/Back_b.png"} {
		if !testsupport.Exists(t, e.path(p)) {
			t.Fatalf("%s must survive a failed step under delete-after-save", p)
		}
	}

	testsupport.WritePNG(t, e.path("1/Back_b.png"), 10, 10, blue)
	r = e.runner(t, config.PolicyDeleteAfterSave, small)
	if _, err := r.Run(context.Background(), discover.BucketMatcher{Count: 1, Base: "DEMO"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, p := range []string{"1/Front_a.png", "1/Back_b.png"} {
		if testsupport.Exists(t, e.path(p)) {
			t.Fatalf("%s must be deleted once the composite is written", p)
		}
	}
}

func TestKeepPolicyNeverDeletes(t *testing.T) {
	e := newEnv(t)
	testsupport.WritePNG(t, e.path("1/Front_a.png"), 10, 10, red)
	testsupport.WritePNG(t, e.path("1/Back_b.png"), 10, 10, blue)
	testsupport.WritePNG(t, e.path("1/scene.png"), 10, 10, blue)

	r := e.runner(t, config.PolicyKeep, small)
	report, err := r.Run(context.Background(), discover.BucketMatcher{Count: 1, Base: "DEMO"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Written() != 2 {
		t.Fatalf("expected composite and action, got %+v", report.Results)
	}
	for _, p := range []string{"1/Front_a.png", "1/Back_b.png", "1/scene.png"} {
		if !testsupport.Exists(t, e.path(p)) {
			t.Fatalf("%s must be kept", p)
		}
	}
}

func TestRunRefusesLockedOutputDir(t *testing.T) {
	e := newEnv(t)
	if err := os.MkdirAll(e.out, 0o755); err != nil {
		t.Fatal(err)
	}
	held := flock.New(pipeline.LockPath(e.out))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	r := e.runner(t, "", small)
	if _, err := r.Run(context.Background(), discover.NameMatcher{}); !errors.Is(err, pipeline.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunLeavesOnlyCompositesInOutputDir(t *testing.T) {
	e := newEnv(t)
	testsupport.WritePNG(t, e.path("Front 2, Ace.png"), 10, 10, red)
	testsupport.WritePNG(t, e.path("Back 2, Ace.png"), 10, 10, blue)

	r := e.runner(t, config.PolicyKeep, small)
	if _, err := r.Run(context.Background(), discover.NameMatcher{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := os.ReadDir(e.out)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "Promotional_Ace.jpg" {
		names := make([]string, 0, len(entries))
		for _, en := range entries {
			names = append(names, en.Name())
		}
		t.Fatalf("expected only the composite in the output dir, got %v", names)
	}
	if filepath.Dir(pipeline.LockPath(e.out)) != filepath.Clean(os.TempDir()) {
		t.Fatalf("lock %s should live in the temp dir", pipeline.LockPath(e.out))
	}
	if pipeline.LockPath(e.out) != pipeline.LockPath(filepath.Join(e.out, ".", "")) {
		t.Fatal("equivalent spellings of the output dir must share a lock")
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	e := newEnv(t)
	testsupport.WritePNG(t, e.path("1/Front_a.png"), 10, 10, red)
	testsupport.WritePNG(t, e.path("1/Back_b.png"), 10, 10, blue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := e.runner(t, "", small)
	if _, err := r.Run(ctx, discover.BucketMatcher{Count: 1, Base: "DEMO"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !testsupport.Exists(t, e.path("1/Front_a.png")) {
		t.Fatal("a cancelled run must not touch sources")
	}
}

func TestNewRunnerRejectsBadOptions(t *testing.T) {
	if _, err := pipeline.NewRunner(pipeline.Options{SourceDir: "a", OutputDir: "b", Policy: "shred"}, nil); err == nil {
		t.Fatal("expected unsupported policy error")
	}
	if _, err := pipeline.NewRunner(pipeline.Options{SourceDir: "a"}, nil); err == nil {
		t.Fatal("expected missing output dir error")
	}
}

func TestOptionsFromConfigBuildsStamp(t *testing.T) {
	cfg := config.Default()
	cfg.Stamp.QRText = "promo:DEMO"
	opts, err := pipeline.OptionsFromConfig(&cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	if opts.Composer.Stamp == nil || opts.Composer.Stamp.Bounds().Dx() != cfg.Stamp.QRSize {
		t.Fatalf("expected %dpx stamp", cfg.Stamp.QRSize)
	}
	if opts.Composer.Quality != 95 || opts.Policy != config.PolicyDeleteOnLoad {
		t.Fatalf("unexpected options %+v", opts)
	}
}
