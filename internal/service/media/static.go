package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"

	"sticker2emoji/internal/domain"
)

// NormalizeStatic decodes a raster sticker and fits it into a transparent
// size x size canvas.
func NormalizeStatic(data []byte, size int) (*image.NRGBA, error) {
	const errMsg = "NormalizeStatic"

	if size <= 0 {
		return nil, errors.Wrap(domain.Mark(errors.Errorf("invalid canvas size %d", size), domain.ErrDecode), errMsg)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(domain.Mark(err, domain.ErrDecode), errMsg)
	}

	canvas, err := ComposeCanvas(img, size)
	if err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	return canvas, nil
}

// ComposeCanvas downscales img (never upscales) so that its longer edge fits
// into size and pastes it centered on a fully transparent square.
func ComposeCanvas(img image.Image, size int) (*image.NRGBA, error) {
	const errMsg = "ComposeCanvas"

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.Wrap(domain.Mark(errors.New("empty image"), domain.ErrDecode), errMsg)
	}

	scaled := imaging.Fit(img, size, size, imaging.Lanczos)
	w, h := scaled.Bounds().Dx(), scaled.Bounds().Dy()

	canvas := imaging.New(size, size, color.NRGBA{})

	return imaging.Paste(canvas, scaled, image.Pt((size-w)/2, (size-h)/2)), nil
}

// EncodePNG writes img as a size-optimized PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	err := imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))

	return errors.Wrap(err, "EncodePNG")
}
