package app

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"sticker2emoji/internal/config"
	"sticker2emoji/internal/handler"
	"sticker2emoji/internal/handler/console"
	"sticker2emoji/internal/handler/pack"
	"sticker2emoji/internal/infrastructure/webapi"
	"sticker2emoji/internal/server"
	"sticker2emoji/internal/service"
)

const lockFileName = "sticker2emoji.lock"

type App struct {
	cfg      *config.Config
	lock     *flock.Flock
	handlers *handler.Handlers
	server   *server.Server
}

func New(cfg *config.Config) (*App, error) {
	const errMsg = "App.New"

	app := &App{
		cfg: cfg,
	}

	err := app.acquireWorkDir()
	if err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	webAPI, err := webapi.New(cfg)
	if err != nil {
		app.Close()

		return nil, errors.Wrap(err, errMsg)
	}

	services := service.New(cfg)

	app.handlers = handler.New(cfg, webAPI, services)

	app.server = server.New(
		&server.InitParams{
			Config:   cfg,
			Api:      webAPI.Bot,
			Handlers: app.handlers,
		},
	)

	return app, nil
}

// Convert runs a single pack conversion and reports progress to out.
func (a *App) Convert(ctx context.Context, opts pack.Options, out io.Writer) error {
	rep := console.New(out)
	rep.Banner()

	return a.handlers.Pack.ConvertPack(ctx, opts, rep)
}

// Serve runs the bot until ctx is cancelled.
func (a *App) Serve(ctx context.Context) {
	a.server.Start(ctx)
}

// Close removes scratch directories and releases the work dir lock.
func (a *App) Close() {
	for _, dir := range []string{a.cfg.Paths.Jobs, a.cfg.Paths.Result} {
		_ = os.RemoveAll(dir)
	}

	if a.lock != nil {
		_ = a.lock.Unlock()
	}
}

// acquireWorkDir locks the work dir so that two runs never share scratch
// space, then clears whatever an interrupted run left behind.
func (a *App) acquireWorkDir() error {
	const errMsg = "acquireWorkDir"

	err := os.MkdirAll(a.cfg.Paths.Work, os.ModePerm)
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	a.lock = flock.New(filepath.Join(a.cfg.Paths.Work, lockFileName))

	ok, err := a.lock.TryLock()
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	if !ok {
		a.lock = nil

		return errors.Wrap(errors.Errorf("work dir %s is used by another run", a.cfg.Paths.Work), errMsg)
	}

	return a.setupDirs()
}

func (a *App) setupDirs() error {
	for _, dir := range []string{a.cfg.Paths.Jobs, a.cfg.Paths.Result} {
		err := os.RemoveAll(dir)
		if err != nil {
			return errors.Wrap(err, "setupDirs")
		}

		err = os.MkdirAll(dir, os.ModePerm)
		if err != nil {
			return errors.Wrap(err, "setupDirs")
		}
	}

	return nil
}
