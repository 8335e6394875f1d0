// Package upload turns a local image into a publicly fetchable URL.
package upload

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
)

// Normalizer rewrites an image so that its pixels are upright.
// It returns the path to upload and a cleanup func that is always safe to call.
type Normalizer interface {
	Normalize(path string) (string, func(), error)
}

// ExifNormalizer applies the EXIF Orientation tag to the pixel buffer.
type ExifNormalizer struct {
	TempDir string
}

func NewExifNormalizer() *ExifNormalizer {
	return &ExifNormalizer{TempDir: os.TempDir()}
}

func noop() {}

// Orientation reads the EXIF Orientation tag of path. Zero means absent.
func Orientation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}

func (n *ExifNormalizer) Normalize(path string) (string, func(), error) {
	var rotate func(image.Image) *image.NRGBA
	switch Orientation(path) {
	case 3:
		rotate = imaging.Rotate180
	case 6:
		rotate = imaging.Rotate270 // 90° clockwise
	case 8:
		rotate = imaging.Rotate90 // 90° counter-clockwise
	default:
		return path, noop, nil
	}

	src, err := imaging.Open(path)
	if err != nil {
		return path, noop, fmt.Errorf("open image: %w", err)
	}

	img := rotate(src)
	perturbCorner(img)

	out := filepath.Join(n.TempDir, "food-agent-"+uuid.NewString()+".jpg")
	if err := imaging.Save(img, out, imaging.JPEGQuality(90)); err != nil {
		return path, noop, fmt.Errorf("save rotated image: %w", err)
	}
	return out, func() { _ = os.Remove(out) }, nil
}

// perturbCorner nudges the blue channel of the bottom-right pixel so hosts do not serve a cached copy.
func perturbCorner(img *image.NRGBA) {
	b := img.Bounds()
	if b.Empty() {
		return
	}
	x, y := b.Max.X-1, b.Max.Y-1
	c := img.NRGBAAt(x, y)
	c.B = uint8((int(c.B) + rand.Intn(5) + 1) % 256)
	img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
}
