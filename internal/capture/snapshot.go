package capture

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// Snapshot defaults.
const (
	DefaultThumbSize   = 320
	DefaultJPEGQuality = 90
)

// Snapshot describes the files written for a captured frame.
type Snapshot struct {
	ImagePath string
	ThumbPath string
	Width     int
	Height    int
}

// SaveSnapshot writes frame as <dir>/<id>.jpg plus a <dir>/<id>_thumb.jpg
// thumbnail that fits in DefaultThumbSize pixels.
func SaveSnapshot(frame *gocv.Mat, dir, id string) (Snapshot, error) {
	if frame == nil || frame.Empty() {
		return Snapshot{}, fmt.Errorf("save snapshot %s: empty frame", id)
	}

	img, err := frame.ToImage()
	if err != nil {
		return Snapshot{}, fmt.Errorf("convert frame: %w", err)
	}
	return SaveImage(img, dir, id)
}

// SaveImage writes img and its thumbnail into dir.
func SaveImage(img image.Image, dir, id string) (Snapshot, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Snapshot{}, fmt.Errorf("create snapshot directory: %w", err)
	}

	snap := Snapshot{
		ImagePath: filepath.Join(dir, id+".jpg"),
		ThumbPath: filepath.Join(dir, id+"_thumb.jpg"),
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
	}

	if err := imaging.Save(img, snap.ImagePath, imaging.JPEGQuality(DefaultJPEGQuality)); err != nil {
		return Snapshot{}, fmt.Errorf("save image: %w", err)
	}

	thumb := imaging.Fit(img, DefaultThumbSize, DefaultThumbSize, imaging.Lanczos)
	if err := imaging.Save(thumb, snap.ThumbPath, imaging.JPEGQuality(DefaultJPEGQuality)); err != nil {
		os.Remove(snap.ImagePath)
		return Snapshot{}, fmt.Errorf("save thumbnail: %w", err)
	}

	return snap, nil
}

// RemoveSnapshot deletes the files written by SaveSnapshot. Missing files are ignored.
func RemoveSnapshot(imagePath, thumbPath string) error {
	for _, p := range []string{imagePath, thumbPath} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}
