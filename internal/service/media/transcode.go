package media

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"sticker2emoji/internal/domain"
)

const frameMask = "frame_%04d.png"

type Limits struct {
	Size        int
	MaxDuration float64
	MaxBytes    int64
}

type Transcoder struct {
	jobsDir    string
	limits     Limits
	workers    int
	rasterizer Rasterizer
	encoder    Encoder
}

func NewTranscoder(jobsDir string, limits Limits, workers int, r Rasterizer, e Encoder) *Transcoder {
	return &Transcoder{
		jobsDir:    jobsDir,
		limits:     limits,
		workers:    max(1, workers),
		rasterizer: r,
		encoder:    e,
	}
}

// Transcode renders at most limits.MaxDuration seconds of anim into a job
// directory and encodes the frames into outPath. The job directory is removed
// on every exit path.
func (t *Transcoder) Transcode(ctx context.Context, anim *Animation, outPath string) (err error) {
	const errMsg = "Transcoder.Transcode"

	frames := FramesToRender(anim, t.limits.MaxDuration)
	if frames <= 0 {
		err = errors.Errorf("nothing to render (%d frames at %v fps)", anim.TotalFrames(), anim.FrameRate())

		return errors.Wrap(domain.Mark(err, domain.ErrRender), errMsg)
	}

	jobID := uuid.NewString()
	jobDir := filepath.Join(t.jobsDir, jobID)

	defer func() {
		errFs := os.RemoveAll(jobDir)
		if errFs != nil {
			slog.Error("Failed to remove job folder", slog.String("jobID", jobID), slog.Any("err", errFs))
		}
	}()

	framesDirPath := filepath.Join(jobDir, "frames")

	err = os.MkdirAll(framesDirPath, os.ModePerm)
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	docPath, err := writeDocument(jobDir, anim)
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	err = t.renderSequence(ctx, docPath, framesDirPath, frames)
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	err = t.encoder.Encode(ctx, EncodeJob{
		FramePattern: filepath.Join(framesDirPath, frameMask),
		FrameRate:    anim.FrameRate(),
		Duration:     float64(frames) / anim.FrameRate(),
		MaxBytes:     t.limits.MaxBytes,
		OutPath:      outPath,
	})
	if err != nil {
		_ = os.Remove(outPath)

		return errors.Wrap(err, errMsg)
	}

	return nil
}

func (t *Transcoder) renderSequence(ctx context.Context, docPath, framesDir string, frames int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)

	for i := range frames {
		g.Go(func() error {
			return t.rasterizer.Rasterize(gctx, RasterJob{
				DocumentPath: docPath,
				Frame:        i,
				Size:         t.limits.Size,
				OutPath:      filepath.Join(framesDir, fmt.Sprintf(frameMask, i)),
			})
		})
	}

	return errors.Wrap(g.Wait(), "renderSequence")
}

// RenderFirstFrame rasterizes frame 0 and places it on an emoji canvas.
func (t *Transcoder) RenderFirstFrame(ctx context.Context, anim *Animation) (img image.Image, err error) {
	const errMsg = "Transcoder.RenderFirstFrame"

	jobID := uuid.NewString()
	jobDir := filepath.Join(t.jobsDir, jobID)

	defer func() {
		errFs := os.RemoveAll(jobDir)
		if errFs != nil {
			slog.Error("Failed to remove job folder", slog.String("jobID", jobID), slog.Any("err", errFs))
		}
	}()

	err = os.MkdirAll(jobDir, os.ModePerm)
	if err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	docPath, err := writeDocument(jobDir, anim)
	if err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	frame, err := renderFrame(ctx, t.rasterizer, RasterJob{
		DocumentPath: docPath,
		Frame:        0,
		Size:         t.limits.Size,
		OutPath:      filepath.Join(jobDir, "first.png"),
	})
	if err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	canvas, err := ComposeCanvas(frame, t.limits.Size)
	if err != nil {
		return nil, errors.Wrap(domain.Mark(err, domain.ErrRender), errMsg)
	}

	return canvas, nil
}
