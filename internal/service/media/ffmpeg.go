package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
)

const (
	defaultBitRate   = 50 // kbit/s
	bitrateThreshold = 20
	bitrateDropRate  = 10
)

type EncodeJob struct {
	// FramePattern is a printf-style path such as frames/frame_%04d.png.
	FramePattern string
	FrameRate    float64
	Duration     float64
	MaxBytes     int64
	OutPath      string
}

// Encoder turns an ordered frame sequence into a constrained VP9 video.
type Encoder interface {
	Encode(ctx context.Context, job EncodeJob) error
}

type FFmpegEncoder struct {
	bin     string
	threads int
}

func NewFFmpegEncoder(bin string, threads int) *FFmpegEncoder {
	return &FFmpegEncoder{
		bin:     bin,
		threads: threads,
	}
}

// Encode runs ffmpeg and, while the result stays above job.MaxBytes, retries
// with a lower bitrate until the quality floor is reached.
func (e *FFmpegEncoder) Encode(ctx context.Context, job EncodeJob) error {
	const errMsg = "FFmpegEncoder.Encode"

	binPath, err := exec.LookPath(e.bin)
	if err != nil {
		return errors.Wrap(domain.Mark(err, domain.ErrCapabilityUnavailable), errMsg)
	}

	bitrate := defaultBitRate

	for {
		err = e.assembleSequence(ctx, binPath, job, bitrate)
		if err != nil {
			_ = os.Remove(job.OutPath)

			return errors.Wrap(err, errMsg)
		}

		fInfo, err := os.Stat(job.OutPath)
		if err != nil {
			_ = os.Remove(job.OutPath)

			return errors.Wrap(domain.Mark(err, domain.ErrEncode), errMsg)
		}

		if fInfo.Size() <= job.MaxBytes {
			return nil
		}

		slog.Debug(
			"Encoded video above size limit",
			slog.String("path", job.OutPath),
			slog.Int64("size", fInfo.Size()),
			slog.Int("bitrate", bitrate),
		)

		bitrate, err = downscaleBitrate(bitrate)
		if err != nil {
			_ = os.Remove(job.OutPath)

			return errors.Wrap(domain.Mark(err, domain.ErrEncode), errMsg)
		}
	}
}

func (e *FFmpegEncoder) assembleSequence(ctx context.Context, binPath string, job EncodeJob, bitrate int) error {
	const errMsg = "assembleSequence"

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, binPath, encodeArgs(job, bitrate, e.threads)...)
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), errMsg)
		}

		err = errors.Wrap(err, strings.TrimSpace(stderr.String()))

		return errors.Wrap(domain.Mark(err, domain.ErrEncode), errMsg)
	}

	return nil
}

func encodeArgs(job EncodeJob, bitrate, threads int) []string {
	args := []string{
		"-y",
		"-loglevel", "error",
		"-framerate", strconv.FormatFloat(job.FrameRate, 'f', -1, 64),
		"-i", job.FramePattern,
		"-c:v", "libvpx-vp9",
		"-pix_fmt", "yuva420p",
		"-auto-alt-ref", "0",
		"-b:v", fmt.Sprintf("%dk", bitrate),
		"-maxrate", fmt.Sprintf("%dk", bitrate),
		"-bufsize", fmt.Sprintf("%dk", bitrate*2),
		"-quality", "realtime",
		"-speed", "8",
		"-an",
	}

	if threads > 0 {
		args = append(args, "-threads", strconv.Itoa(threads))
	}

	return append(
		args,
		"-t", strconv.FormatFloat(job.Duration, 'f', 3, 64),
		"-fs", strconv.FormatInt(job.MaxBytes, 10),
		job.OutPath,
	)
}

func downscaleBitrate(bitrate int) (int, error) {
	if bitrate-bitrateDropRate >= bitrateThreshold {
		return bitrate - bitrateDropRate, nil
	}

	return 0, errors.Wrap(errors.New("lower quality limit exceeded"), "downscaleBitrate")
}
