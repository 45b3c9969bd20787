package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Index maps lowercase model stems to filesystem paths.
// .glb files take priority over .gltf for the same stem (single file).
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir and its subdirectories for GLB/GLTF files.
// A missing directory yields an empty index.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}
	if dir == "" {
		return idx
	}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".glb" && ext != ".gltf" {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		existing, exists := idx.entries[stem]
		if !exists {
			idx.entries[stem] = path
		} else if ext == ".glb" && strings.ToLower(filepath.Ext(existing)) == ".gltf" {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

// Add registers a path under its stem, replacing any previous entry.
func (idx *Index) Add(path string) {
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	idx.entries[stem] = path
}

// ResolvePath returns the filesystem path for a model reference, or ("", false).
// References may be URLs, relative paths or bare stems.
func (idx *Index) ResolvePath(ref string) (string, bool) {
	ref = strings.ReplaceAll(ref, "\\", "/")
	base := ref
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		base = ref[i+1:]
	}
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))

	path, ok := idx.entries[stem]
	return path, ok
}

// Refs returns the indexed stems in sorted order.
func (idx *Index) Refs() []string {
	out := make([]string, 0, len(idx.entries))
	for stem := range idx.entries {
		out = append(out, stem)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of indexed models.
func (idx *Index) Len() int {
	return len(idx.entries)
}
