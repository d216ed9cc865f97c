package vcs

import (
	"strings"

	"github.com/juju/naturalsort"
)

// SortTags sorts tags in ascending version order: numeric parts compare as numbers,
// so that v1.0.10 comes after v1.0.2.
func SortTags(tags []string) []string {
	return naturalsort.Sort(append([]string(nil), tags...))
}

// NewestTag returns the highest tag starting with prefix, or "" when none does
func NewestTag(tags []string, prefix string) string {
	candidates := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag != "" && strings.HasPrefix(tag, prefix) {
			candidates = append(candidates, tag)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sorted := SortTags(candidates)
	return sorted[len(sorted)-1]
}
