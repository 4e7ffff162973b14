package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	imagepkg "github.com/youruser/promoapp/internal/image"
)

const DefaultBucketCount = 5

// BucketMatcher reads groups from subdirectories named 1..Count.
type BucketMatcher struct {
	Count int
	Base  string
}

func (m BucketMatcher) Name() string { return "buckets" }

func (m BucketMatcher) Discover(root string) ([]Group, error) {
	if m.Count <= 0 {
		return nil, fmt.Errorf("bucket count must be positive, got %d", m.Count)
	}
	if strings.TrimSpace(m.Base) == "" {
		return nil, errors.New("output base name is required")
	}

	groups := make([]Group, 0, m.Count)
	for i := 1; i <= m.Count; i++ {
		id := strconv.Itoa(i)
		dir := filepath.Join(root, id)
		g := Group{
			ID:         id,
			Dir:        dir,
			PromoName:  fmt.Sprintf("%s_PROMOTIONAL_%d.jpg", m.Base, i),
			ActionName: fmt.Sprintf("%s_PROMOTIONAL_ACTION_%d.jpg", m.Base, i),
		}

		info, err := os.Stat(dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", dir, err)
		}
		if err != nil || !info.IsDir() {
			g.Missing = &imagepkg.MissingFileError{Path: dir, Role: "directory"}
			groups = append(groups, g)
			continue
		}

		if g.Front, err = firstMatch(dir, "Front*.png"); err != nil {
			return nil, err
		}
		if g.Back, err = firstMatch(dir, "Back*.png"); err != nil {
			return nil, err
		}
		switch {
		case g.Front == "":
			g.MissingPair = &imagepkg.MissingFileError{Path: filepath.Join(dir, "Front*.png"), Role: "front"}
		case g.Back == "":
			g.MissingPair = &imagepkg.MissingFileError{Path: filepath.Join(dir, "Back*.png"), Role: "back"}
		}

		if g.Action, err = findAction(dir); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// findAction returns the first PNG whose name starts with neither "front"
// nor "back", ignoring case.
func findAction(dir string) (string, error) {
	matches, err := listMatches(dir, "*.png")
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		name := strings.ToLower(filepath.Base(m))
		if strings.HasPrefix(name, "front") || strings.HasPrefix(name, "back") {
			continue
		}
		return m, nil
	}
	return "", nil
}
