package webapi

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"sticker2emoji/internal/config"
	"sticker2emoji/internal/domain"
	"sticker2emoji/internal/infrastructure/webapi/tgbot"
	"sticker2emoji/internal/infrastructure/webapi/tgfile"
)

type WebAPIs struct {
	Bot   *tgbot.API
	Files *tgfile.API
}

func New(cfg *config.Config) (*WebAPIs, error) {
	bot, err := tgbot.New(cfg.Debug, cfg.BotApiKey, cfg.BotApiEndpoint)
	if err != nil {
		return nil, errors.Wrap(err, "WebAPIs.New")
	}

	return &WebAPIs{
		Bot:   bot,
		Files: tgfile.New(bot, fileEndpoint(cfg.BotApiEndpoint)),
	}, nil
}

// fileEndpoint derives the download endpoint from a custom API endpoint,
// e.g. a local Bot API server.
func fileEndpoint(apiEndpoint string) string {
	if apiEndpoint == "" {
		return tgbotapi.FileEndpoint
	}

	return strings.Replace(apiEndpoint, "/bot%s/", "/file/bot%s/", 1)
}

// FetchPack implements the pipeline's pack source.
func (w *WebAPIs) FetchPack(_ context.Context, name string) (*domain.Pack, error) {
	return w.Bot.GetStickerSet(name)
}

func (w *WebAPIs) FetchBytes(ctx context.Context, asset domain.AssetDescriptor) (domain.AssetDescriptor, []byte, error) {
	return w.Files.Download(ctx, asset)
}
