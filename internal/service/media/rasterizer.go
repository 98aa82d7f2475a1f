package media

import (
	"bytes"
	"compress/gzip"
	"context"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
)

type RasterJob struct {
	// DocumentPath points at the gzipped Lottie document (.tgs) on disk.
	DocumentPath string
	Frame        int
	Size         int
	// OutPath is where the frame PNG is written.
	OutPath string
}

// Rasterizer renders a single frame of a Lottie document to a size x size PNG.
type Rasterizer interface {
	Rasterize(ctx context.Context, job RasterJob) error
}

// CommandRasterizer runs an external renderer once per frame. Args may use
// the {input}, {output}, {frame} and {size} placeholders.
type CommandRasterizer struct {
	bin  string
	args []string
}

func NewCommandRasterizer(bin string, args []string) *CommandRasterizer {
	return &CommandRasterizer{
		bin:  bin,
		args: args,
	}
}

func (r *CommandRasterizer) Rasterize(ctx context.Context, job RasterJob) error {
	const errMsg = "CommandRasterizer.Rasterize"

	binPath, err := exec.LookPath(r.bin)
	if err != nil {
		return errors.Wrap(domain.Mark(err, domain.ErrCapabilityUnavailable), errMsg)
	}

	replacer := strings.NewReplacer(
		"{input}", job.DocumentPath,
		"{output}", job.OutPath,
		"{frame}", strconv.Itoa(job.Frame),
		"{size}", strconv.Itoa(job.Size),
	)

	args := make([]string, 0, len(r.args))
	for _, a := range r.args {
		args = append(args, replacer.Replace(a))
	}

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, binPath, args...)
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), errMsg)
		}

		err = errors.Wrapf(err, "frame %d: %s", job.Frame, strings.TrimSpace(stderr.String()))

		return errors.Wrap(domain.Mark(err, domain.ErrRender), errMsg)
	}

	if _, err = os.Stat(job.OutPath); err != nil {
		return errors.Wrap(domain.Mark(err, domain.ErrRender), errMsg)
	}

	return nil
}

// renderFrame rasterizes one frame and loads it back as an image.
func renderFrame(ctx context.Context, r Rasterizer, job RasterJob) (image.Image, error) {
	const errMsg = "renderFrame"

	err := r.Rasterize(ctx, job)
	if err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	img, err := imaging.Open(job.OutPath)
	if err != nil {
		return nil, errors.Wrap(domain.Mark(err, domain.ErrRender), errMsg)
	}

	return img, nil
}

// writeDocument stores the document next to the job's frames, gzipped again
// so renderers that only accept .tgs input can read it.
func writeDocument(dir string, anim *Animation) (path string, err error) {
	const errMsg = "writeDocument"

	path = filepath.Join(dir, "animation"+domain.TGSSuffix)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, errMsg)
	}

	defer func() {
		errClose := f.Close()
		if err == nil && errClose != nil {
			err = errors.Wrap(errClose, errMsg)
		}
	}()

	zw := gzip.NewWriter(f)

	_, err = zw.Write(anim.Document)
	if err != nil {
		return "", errors.Wrap(err, errMsg)
	}

	return path, errors.Wrap(zw.Close(), errMsg)
}
