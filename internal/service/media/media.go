package media

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
)

func NewMediaConverter(resDir string, limits Limits, transcoder *Transcoder) *Converter {
	return &Converter{
		resDir:     resDir,
		limits:     limits,
		transcoder: transcoder,
	}
}

// Converter normalizes individual stickers into emoji files under resDir.
type Converter struct {
	resDir     string
	limits     Limits
	transcoder *Transcoder
}

// WithResultDir returns a converter that writes into dir.
func (m *Converter) WithResultDir(dir string) *Converter {
	c := *m
	c.resDir = dir

	return &c
}

// Normalize converts one fetched asset. seq numbers the output file and is
// expected to be unique within resDir.
func (m *Converter) Normalize(ctx context.Context, asset domain.AssetDescriptor, data []byte, seq int) (domain.NormalizedResult, error) {
	const errMsg = "Converter.Normalize"

	kind := Classify(asset)
	res := domain.NormalizedResult{
		Emoji: asset.EmojiOrDefault(),
		Kind:  kind,
	}

	var err error

	switch kind {
	case domain.KindNativeVideo:
		res.Path = m.outPath(seq, "webm")
		res.Format = domain.FormatAnimated
		err = writeFile(res.Path, data)
	case domain.KindVectorAnimation:
		res.Path, res.Format, err = m.convertAnimation(ctx, data, seq)
	case domain.KindStatic:
		res.Path = m.outPath(seq, "png")
		res.Format = domain.FormatStatic
		err = m.convertStatic(data, res.Path)
	default:
		err = errors.Errorf("unsupported source kind %d", kind)
	}

	if err != nil {
		return domain.NormalizedResult{}, errors.Wrap(err, errMsg)
	}

	fInfo, err := os.Stat(res.Path)
	if err != nil {
		return domain.NormalizedResult{}, errors.Wrap(err, errMsg)
	}

	res.Size = fInfo.Size()

	return res, nil
}

func (m *Converter) convertStatic(data []byte, outPath string) error {
	img, err := NormalizeStatic(data, m.limits.Size)
	if err != nil {
		return errors.Wrap(err, "convertStatic")
	}

	return errors.Wrap(savePNG(outPath, img), "convertStatic")
}

// convertAnimation prefers a full video and falls back to a still of the
// first frame when transcoding is not possible.
func (m *Converter) convertAnimation(ctx context.Context, data []byte, seq int) (string, domain.FormatTag, error) {
	const errMsg = "convertAnimation"

	anim, err := DecodeAnimation(data)
	if err != nil {
		return "", "", errors.Wrap(err, errMsg)
	}

	webmPath := m.outPath(seq, "webm")

	videoErr := m.transcoder.Transcode(ctx, anim, webmPath)
	if videoErr == nil {
		return webmPath, domain.FormatAnimated, nil
	}

	if ctx.Err() != nil {
		return "", "", errors.Wrap(ctx.Err(), errMsg)
	}

	frame, err := m.transcoder.RenderFirstFrame(ctx, anim)
	if err != nil {
		return "", "", errors.Wrapf(err, "%s: first frame fallback after %v", errMsg, videoErr)
	}

	pngPath := m.outPath(seq, "png")

	err = savePNG(pngPath, frame)
	if err != nil {
		return "", "", errors.Wrap(err, errMsg)
	}

	return pngPath, domain.FormatStatic, nil
}

func (m *Converter) outPath(seq int, ext string) string {
	return filepath.Join(m.resDir, fmt.Sprintf("emoji_%03d.%s", seq, ext))
}

func savePNG(path string, img image.Image) (err error) {
	const errMsg = "savePNG"

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	defer func() {
		errClose := f.Close()
		if err == nil && errClose != nil {
			err = errors.Wrap(errClose, errMsg)
		}

		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return errors.Wrap(EncodePNG(f, img), errMsg)
}

func writeFile(path string, data []byte) error {
	err := os.WriteFile(path, data, 0o644)
	if err != nil {
		_ = os.Remove(path)
	}

	return errors.Wrap(err, "writeFile")
}
