package discover

import (
	"path/filepath"
	"strings"

	imagepkg "github.com/youruser/promoapp/internal/image"
)

const (
	namedFrontPrefix = "Front 2, "
	namedBackPrefix  = "Back 2, "
)

// NameMatcher pairs "Front 2, <NAME>.png" with "Back 2, <NAME>.png" in one
// flat directory. It has no action step.
type NameMatcher struct{}

func (NameMatcher) Name() string { return "pairs" }

func (NameMatcher) Discover(root string) ([]Group, error) {
	matches, err := listMatches(root, namedFrontPrefix+"*.png")
	if err != nil {
		return nil, err
	}

	var groups []Group
	for _, front := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(front), namedFrontPrefix), ".png")
		g := Group{
			ID:        name,
			Dir:       root,
			Front:     front,
			PromoName: "Promotional_" + name + ".jpg",
		}
		back := filepath.Join(root, namedBackPrefix+name+".png")
		if isFile(back) {
			g.Back = back
		} else {
			g.MissingPair = &imagepkg.MissingFileError{Path: back, Role: "back"}
		}
		groups = append(groups, g)
	}
	return groups, nil
}
