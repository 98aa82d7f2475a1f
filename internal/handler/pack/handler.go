package pack

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"sticker2emoji/internal/config"
	"sticker2emoji/internal/domain"
	"sticker2emoji/internal/handler/console"
	"sticker2emoji/internal/handler/general"
	"sticker2emoji/internal/infrastructure/webapi"
	"sticker2emoji/internal/service"
	"sticker2emoji/internal/service/pipeline"
	"sticker2emoji/internal/service/publish"
)

const DefaultLimit = 50

type Options struct {
	Pack      string
	Name      string
	Limit     int
	SaveLocal bool
	OutputDir string
	DryRun    bool
}

type Handler struct {
	cfg      *config.Config
	apis     *webapi.WebAPIs
	services *service.Services
	general  *general.Handler

	reqQueue chan domain.UserRequest

	activityCache *cache.Cache
}

func New(cfg *config.Config, apis *webapi.WebAPIs, services *service.Services) *Handler {
	return &Handler{
		cfg:           cfg,
		apis:          apis,
		services:      services,
		general:       general.New(cfg, apis.Bot),
		reqQueue:      make(chan domain.UserRequest, 50),
		activityCache: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

// ConvertPack is the one-shot CLI flow: fetch, convert, report, then
// optionally save and publish.
func (h *Handler) ConvertPack(ctx context.Context, opts Options, rep *console.Reporter) error {
	const errMsg = "PackHandler.ConvertPack"

	packName, err := publish.ParsePackName(opts.Pack)
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	if opts.Limit <= 0 {
		return errors.Wrap(errors.Errorf("limit must be positive, got %d", opts.Limit), errMsg)
	}

	if opts.Name != "" {
		err = publish.ValidateStem(opts.Name)
		if err != nil {
			return errors.Wrap(err, errMsg)
		}
	}

	if !opts.DryRun {
		err = h.cfg.RequireUser()
		if err != nil {
			return errors.Wrap(err, errMsg)
		}
	}

	batch, cleanup, err := h.convert(ctx, packName, opts.Limit, rep)
	defer cleanup()
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	rep.Summary(batch)

	if len(batch.Results) == 0 {
		return errors.Wrap(errors.New("no emojis to upload"), errMsg)
	}

	if opts.SaveLocal {
		err = saveResults(batch.Results, opts.OutputDir)
		if err != nil {
			return errors.Wrap(err, errMsg)
		}

		rep.Saved(opts.OutputDir, len(batch.Results))
	}

	if opts.DryRun {
		rep.DryRun()

		return nil
	}

	report, err := publish.New(h.apis.Bot, rep).Publish(ctx, publish.Request{
		UserID:  h.cfg.UserID,
		Name:    opts.Name,
		Title:   batch.Title,
		Results: batch.Results,
	})
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	rep.Published(report)

	return nil
}

// convert runs the pipeline into a fresh run directory. cleanup removes that
// directory and is safe to call even when err is set.
func (h *Handler) convert(ctx context.Context, packName string, limit int, progress pipeline.Progress) (*domain.ConversionBatch, func(), error) {
	const errMsg = "convert"

	runDir := filepath.Join(h.cfg.Paths.Result, uuid.NewString())
	cleanup := func() {
		_ = os.RemoveAll(runDir)
	}

	err := os.MkdirAll(runDir, os.ModePerm)
	if err != nil {
		return nil, cleanup, errors.Wrap(err, errMsg)
	}

	orchestrator := pipeline.New(h.apis, h.services.Media.WithResultDir(runDir), progress)

	batch, err := orchestrator.Run(ctx, packName, limit)
	if err != nil {
		return nil, cleanup, errors.Wrap(err, errMsg)
	}

	return batch, cleanup, nil
}

func saveResults(results []domain.NormalizedResult, dir string) error {
	const errMsg = "saveResults"

	err := os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	for _, res := range results {
		err = copyFile(res.Path, filepath.Join(dir, filepath.Base(res.Path)))
		if err != nil {
			return errors.Wrap(err, errMsg)
		}
	}

	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "copyFile")
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "copyFile")
	}

	defer func() {
		errClose := out.Close()
		if err == nil && errClose != nil {
			err = errors.Wrap(errClose, "copyFile")
		}
	}()

	_, err = io.Copy(out, in)

	return errors.Wrap(err, "copyFile")
}
