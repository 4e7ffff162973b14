package discover_test

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/youruser/promoapp/internal/discover"
	"github.com/youruser/promoapp/internal/testsupport"
)

var gray = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		testsupport.WritePNG(t, filepath.Join(root, n), 2, 2, gray)
	}
}

func TestBucketMatcherDiscover(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"1/Front_b.png", "1/Front_a.png", "1/Back_x.png", "1/action.png",
		"2/Front_a.png", "2/front_lower.png", "2/BACK_upper.png",
		"4/Back_only.png", "4/zeta.png", "4/alpha.png",
	)
	if err := os.MkdirAll(filepath.Join(root, "5"), 0o755); err != nil {
		t.Fatal(err)
	}

	groups, err := discover.BucketMatcher{Count: 5, Base: "DEMO"}.Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(groups) != 5 {
		t.Fatalf("expected 5 groups, got %d", len(groups))
	}

	g1 := groups[0]
	if filepath.Base(g1.Front) != "Front_a.png" || filepath.Base(g1.Back) != "Back_x.png" {
		t.Fatalf("unexpected pair in bucket 1: %q %q", g1.Front, g1.Back)
	}
	if filepath.Base(g1.Action) != "action.png" {
		t.Fatalf("unexpected action in bucket 1: %q", g1.Action)
	}
	if g1.PromoName != "DEMO_PROMOTIONAL_1.jpg" || g1.ActionName != "DEMO_PROMOTIONAL_ACTION_1.jpg" {
		t.Fatalf("unexpected output names %q %q", g1.PromoName, g1.ActionName)
	}
	if !g1.HasPair() || g1.MissingPair != nil || g1.Missing != nil {
		t.Fatalf("bucket 1 should be complete: %+v", g1)
	}

	// Front/Back globs are case sensitive; the action prefix check is not.
	g2 := groups[1]
	if g2.HasPair() || g2.MissingPair == nil || g2.MissingPair.Role != "back" {
		t.Fatalf("bucket 2 should miss its back image: %+v", g2)
	}
	if g2.Action != "" {
		t.Fatalf("front/back prefixed files must not be action shots, got %q", g2.Action)
	}

	if groups[2].Missing == nil || groups[2].Missing.Role != "directory" {
		t.Fatalf("bucket 3 should be missing: %+v", groups[2])
	}

	g4 := groups[3]
	if g4.MissingPair == nil || g4.MissingPair.Role != "front" {
		t.Fatalf("bucket 4 should miss its front image: %+v", g4)
	}
	if filepath.Base(g4.Action) != "alpha.png" {
		t.Fatalf("expected first action in sorted order, got %q", g4.Action)
	}

	g5 := groups[4]
	if g5.Missing != nil || g5.HasPair() || g5.Action != "" {
		t.Fatalf("bucket 5 is an empty directory: %+v", g5)
	}
}

func TestBucketMatcherRequiresBase(t *testing.T) {
	if _, err := (discover.BucketMatcher{Count: 5}).Discover(t.TempDir()); err == nil {
		t.Fatal("expected error for empty base name")
	}
	if _, err := (discover.BucketMatcher{Count: 0, Base: "X"}).Discover(t.TempDir()); err == nil {
		t.Fatal("expected error for zero bucket count")
	}
}

func TestNameMatcherDiscover(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"Front 2, Ace.png", "Back 2, Ace.png",
		"Front 2, King.png",
		"Back 2, Queen.png",
		"Front_2_Jack.png",
	)

	groups, err := discover.NameMatcher{}.Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(groups), groups)
	}

	ace := groups[0]
	if ace.ID != "Ace" || !ace.HasPair() || ace.PromoName != "Promotional_Ace.jpg" {
		t.Fatalf("unexpected Ace group: %+v", ace)
	}
	if filepath.Base(ace.Back) != "Back 2, Ace.png" {
		t.Fatalf("unexpected back path %q", ace.Back)
	}
	if ace.WantsAction() {
		t.Fatal("name matching has no action step")
	}

	king := groups[1]
	if king.ID != "King" || king.HasPair() || king.MissingPair == nil {
		t.Fatalf("King should be missing its back image: %+v", king)
	}
	if filepath.Base(king.MissingPair.Path) != "Back 2, King.png" {
		t.Fatalf("unexpected missing path %q", king.MissingPair.Path)
	}
}

func TestNameMatcherEmptyRoot(t *testing.T) {
	groups, err := discover.NameMatcher{}.Discover(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestDiscoverTreatsRootMetacharactersLiterally(t *testing.T) {
	root := filepath.Join(t.TempDir(), "shots[2024]")
	touch(t, root,
		"1/Front_a.png", "1/Back_a.png", "1/hero.png",
		"Front 2, Ace.png", "Back 2, Ace.png",
	)

	groups, err := discover.BucketMatcher{Count: 1, Base: "DEMO"}.Discover(root)
	if err != nil {
		t.Fatalf("buckets Discover: %v", err)
	}
	g := groups[0]
	if !g.HasPair() || g.MissingPair != nil {
		t.Fatalf("expected pair under bracketed root, got %+v", g)
	}
	if g.Front != filepath.Join(root, "1", "Front_a.png") || g.Back != filepath.Join(root, "1", "Back_a.png") {
		t.Fatalf("unexpected pair %q / %q", g.Front, g.Back)
	}
	if g.Action != filepath.Join(root, "1", "hero.png") {
		t.Fatalf("unexpected action %q", g.Action)
	}

	pairs, err := discover.NameMatcher{}.Discover(root)
	if err != nil {
		t.Fatalf("pairs Discover: %v", err)
	}
	if len(pairs) != 1 || pairs[0].ID != "Ace" || !pairs[0].HasPair() {
		t.Fatalf("expected the Ace pair under bracketed root, got %+v", pairs)
	}
}
