// Package discover finds source groups on disk and names their outputs.
//
// A Matcher encapsulates one source layout. The pipeline only sees Groups, so
// numbered buckets and name-matched pairs share a single processing path.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	imagepkg "github.com/youruser/promoapp/internal/image"
)

// Group is one front/back pairing with an optional action shot.
type Group struct {
	ID  string
	Dir string

	Front  string
	Back   string
	Action string

	PromoName  string
	ActionName string // empty when the layout has no action step

	// Missing is set when the group as a whole is absent.
	Missing *imagepkg.MissingFileError
	// MissingPair is set when front or back could not be found.
	MissingPair *imagepkg.MissingFileError
}

// HasPair reports whether both front and back were found.
func (g Group) HasPair() bool {
	return g.Front != "" && g.Back != ""
}

// WantsAction reports whether the layout produces an action shot for g.
func (g Group) WantsAction() bool {
	return g.ActionName != ""
}

// Matcher discovers groups under root.
type Matcher interface {
	Name() string
	Discover(root string) ([]Group, error)
}

// firstMatch returns the lexically first regular file in dir matching
// pattern, or "" when there is none.
func firstMatch(dir, pattern string) (string, error) {
	matches, err := listMatches(dir, pattern)
	if err != nil || len(matches) == 0 {
		return "", err
	}
	return matches[0], nil
}

// listMatches returns the regular files directly inside dir whose base name
// matches pattern, sorted lexically. Only pattern is interpreted, so glob
// metacharacters in dir itself are taken literally. A missing dir yields no
// matches.
func listMatches(dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var matches []string
	for _, e := range entries {
		if ok, _ := filepath.Match(pattern, e.Name()); !ok {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if isFile(path) {
			matches = append(matches, path)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
