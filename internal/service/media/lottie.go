package media

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"math"

	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
)

// TGS documents are capped at 64KB compressed; the decompressed bound keeps
// a hostile payload from inflating without limit.
const maxDocumentSize = 8 << 20

type lottieHeader struct {
	Version   string            `json:"v"`
	Name      string            `json:"nm"`
	FrameRate float64           `json:"fr"`
	InPoint   float64           `json:"ip"`
	OutPoint  float64           `json:"op"`
	Width     int               `json:"w"`
	Height    int               `json:"h"`
	Layers    []json.RawMessage `json:"layers"`
}

// Animation is a decoded vector animation. Document holds the uncompressed
// Lottie JSON that is handed to the rasterizer.
type Animation struct {
	Document    []byte
	Name        string
	Width       int
	Height      int
	totalFrames int
	frameRate   float64
}

func (a *Animation) TotalFrames() int {
	return a.totalFrames
}

func (a *Animation) FrameRate() float64 {
	return a.frameRate
}

// DecodeAnimation unpacks a gzip-framed Lottie document and validates its
// timing metadata.
func DecodeAnimation(data []byte) (*Animation, error) {
	const errMsg = "DecodeAnimation"

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(domain.Mark(err, domain.ErrDecode), errMsg)
	}
	defer zr.Close()

	doc, err := io.ReadAll(io.LimitReader(zr, maxDocumentSize+1))
	if err != nil {
		return nil, errors.Wrap(domain.Mark(err, domain.ErrDecode), errMsg)
	}

	if len(doc) > maxDocumentSize {
		err = errors.Errorf("document larger than %d bytes", maxDocumentSize)

		return nil, errors.Wrap(domain.Mark(err, domain.ErrDecode), errMsg)
	}

	var header lottieHeader

	err = json.Unmarshal(doc, &header)
	if err != nil {
		return nil, errors.Wrap(domain.Mark(err, domain.ErrDecode), errMsg)
	}

	total := int(math.Floor(header.OutPoint - header.InPoint))

	switch {
	case header.FrameRate <= 0 || math.IsNaN(header.FrameRate) || math.IsInf(header.FrameRate, 0):
		err = errors.Errorf("invalid frame rate %v", header.FrameRate)
	case total <= 0:
		err = errors.Errorf("animation has no frames (ip=%v op=%v)", header.InPoint, header.OutPoint)
	case len(header.Layers) == 0:
		err = errors.New("animation has no layers")
	}

	if err != nil {
		return nil, errors.Wrap(domain.Mark(err, domain.ErrRender), errMsg)
	}

	return &Animation{
		Document:    doc,
		Name:        header.Name,
		Width:       header.Width,
		Height:      header.Height,
		totalFrames: total,
		frameRate:   header.FrameRate,
	}, nil
}

// FramesToRender caps the animation to maxDuration seconds. Longer animations
// are cut, not resampled.
func FramesToRender(anim *Animation, maxDuration float64) int {
	return min(anim.TotalFrames(), int(math.Floor(anim.FrameRate()*maxDuration)))
}
