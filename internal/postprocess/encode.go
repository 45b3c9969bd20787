package postprocess

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
)

// WriteWebP encodes img losslessly to path, creating parent directories.
func WriteWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("postprocess: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("postprocess: %w", err)
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("postprocess: webp encode %s: %w", path, err)
	}
	return f.Close()
}
