package general

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sticker2emoji/internal/config"
)

type (
	botApi interface {
		SendMessage(chatID int64, message string) (tgbotapi.Message, error)
	}

	Handler struct {
		cfg *config.Config
		api botApi
	}
)

func New(cfg *config.Config, botAPI botApi) *Handler {
	return &Handler{
		cfg: cfg,
		api: botAPI,
	}
}

func (h *Handler) StartResponse(chatID int64) {
	message := "Welcome to sticker2emoji bot!\n" +
		"Send me any sticker or a sticker pack link (https://t.me/addstickers/...) " +
		"and I will turn the whole pack into a custom emoji pack owned by you.\n" +
		fmt.Sprintf(
			"Emoji are %dx%d, animated ones are cut to %.0f seconds.",
			h.cfg.Media.EmojiSize, h.cfg.Media.EmojiSize, h.cfg.Media.MaxDuration,
		)

	_, _ = h.api.SendMessage(chatID, message)
}

func (h *Handler) MessageResponse(chatID int64, message string) {
	_, _ = h.api.SendMessage(chatID, message)
}
