package service

import (
	"sticker2emoji/internal/config"
	"sticker2emoji/internal/service/media"
)

type Services struct {
	Media *media.Converter
}

func New(cfg *config.Config) *Services {
	limits := media.Limits{
		Size:        cfg.Media.EmojiSize,
		MaxDuration: cfg.Media.MaxDuration,
		MaxBytes:    cfg.Media.MaxVideoSize,
	}

	transcoder := media.NewTranscoder(
		cfg.Paths.Jobs,
		limits,
		cfg.Media.RenderWorkers,
		media.NewCommandRasterizer(cfg.Media.RendererBin, cfg.Media.RendererArgs),
		media.NewFFmpegEncoder(cfg.Media.FFmpegBin, cfg.Media.RenderWorkers),
	)

	return &Services{
		Media: media.NewMediaConverter(cfg.Paths.Result, limits, transcoder),
	}
}
