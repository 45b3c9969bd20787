package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// Index maps lowercase texture stems to filesystem paths.
// PNG and TGA take priority over JPEG for the same stem (alpha channel).
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir recursively for texture files.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !SupportedExt(path) {
			return nil
		}
		idx.add(path)
		return nil
	})
	return idx
}

func (idx *Index) add(path string) {
	stem := stemOf(path)
	existing, exists := idx.entries[stem]
	if !exists || (!hasAlpha(existing) && hasAlpha(path)) {
		idx.entries[stem] = path
	}
}

func hasAlpha(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".png" || ext == ".tga"
}

func stemOf(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
// Names may carry a directory prefix and extension
// (e.g. "/textures/snow/snow_field_aerial_col_4k.jpg").
func (idx *Index) ResolvePath(texName string) (string, bool) {
	path, ok := idx.entries[stemOf(texName)]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
