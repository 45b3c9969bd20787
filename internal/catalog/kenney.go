// Package catalog lists the prefab models a layout may place and maps
// model references to files on disk.
package catalog

import (
	"fmt"
	"strings"

	"snowcity/internal/scenery"
)

// KitPrefix is the public path of the Kenney City Kit Suburban GLB models.
const KitPrefix = "/kenney_city-kit-suburban_20/models/GLB format/"

var kitModels = []string{
	"building-type-a", "building-type-b", "building-type-c", "building-type-d",
	"building-type-e", "building-type-f", "building-type-g", "building-type-h",
	"building-type-i", "building-type-j", "building-type-k", "building-type-l",
	"building-type-m", "building-type-n", "building-type-o", "building-type-p",
	"building-type-q", "building-type-r", "building-type-s", "building-type-t",
	"building-type-u",

	"driveway-long", "driveway-short",
	"path-long", "path-short",
	"path-stones-long", "path-stones-messy", "path-stones-short",

	"fence-1x2", "fence-1x3", "fence-1x4", "fence-2x2", "fence-2x3",
	"fence-3x2", "fence-3x3", "fence-low", "fence",

	"planter", "tree-large", "tree-small",
}

// Category groups kit models by what they depict.
type Category string

const (
	All    Category = "all"
	Houses Category = "houses"
	Trees  Category = "trees"
	Fences Category = "fences"
	Paths  Category = "paths"
	Decor  Category = "decor"
)

// KitURLs returns every kit model reference.
func KitURLs() []string {
	out := make([]string, len(kitModels))
	for i, m := range kitModels {
		out[i] = KitPrefix + m + ".glb"
	}
	return out
}

// Filter returns the references that belong to category c.
// Unknown categories match nothing.
func Filter(refs []string, c Category) []string {
	var out []string
	for _, r := range refs {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether ref belongs to c.
func (c Category) Matches(ref string) bool {
	switch c {
	case All:
		return true
	case Houses:
		return strings.Contains(ref, "building-type")
	case Trees:
		return strings.Contains(ref, "tree")
	case Fences:
		return strings.Contains(ref, "fence")
	case Paths:
		return strings.Contains(ref, "path") || strings.Contains(ref, "driveway")
	case Decor:
		return strings.Contains(ref, "planter")
	}
	return false
}

// ParseCategory validates a category name; empty means All.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case "":
		return All, nil
	case All, Houses, Trees, Fences, Paths, Decor:
		return c, nil
	}
	return "", fmt.Errorf("catalog: unknown category %q: %w", s, scenery.ErrInvalidConfiguration)
}
