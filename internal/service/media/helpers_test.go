package media

import (
	"bytes"
	"compress/gzip"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
)

func tgsDocument(t *testing.T, fr, ip, op float64) []byte {
	t.Helper()
	doc := []byte(`{"v":"5.5.2","nm":"test","fr":` + ftoa(fr) + `,"ip":` + ftoa(ip) +
		`,"op":` + ftoa(op) + `,"w":512,"h":512,"layers":[{"ty":4}]}`)
	return gzipBytes(t, doc)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := EncodePNG(&buf, imaging.New(w, h, c)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// fakeRasterizer paints every requested frame as an opaque square.
type fakeRasterizer struct {
	mu     sync.Mutex
	frames []int
	err    error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, job RasterJob) error {
	f.mu.Lock()
	f.frames = append(f.frames, job.Frame)
	f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	return imaging.Save(imaging.New(job.Size, job.Size, color.NRGBA{R: 255, A: 255}), job.OutPath)
}

func (f *fakeRasterizer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// fakeEncoder records the job and checks the frame files exist at call time.
type fakeEncoder struct {
	jobs         []EncodeJob
	framesOnDisk int
	output       []byte
	err          error
}

func (f *fakeEncoder) Encode(_ context.Context, job EncodeJob) error {
	f.jobs = append(f.jobs, job)

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(job.FramePattern), "frame_*.png"))
	f.framesOnDisk = len(matches)

	if f.err != nil {
		return f.err
	}
	out := f.output
	if out == nil {
		out = []byte("webm")
	}
	return os.WriteFile(job.OutPath, out, 0o644)
}

func errUnavailable() error {
	return domain.Mark(errors.New("exec: \"ffmpeg\": executable file not found in $PATH"), domain.ErrCapabilityUnavailable)
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected %s to be empty, found %d entries", dir, len(entries))
	}
}

func alphaAt(img image.Image, x, y int) uint32 {
	_, _, _, a := img.At(x, y).RGBA()
	return a
}

// writeScript installs an executable shell script standing in for an external tool.
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}
