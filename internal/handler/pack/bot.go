package pack

import (
	"context"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
	"sticker2emoji/internal/service/publish"
)

const workerCount = 3

// StartWorkers launches the bot-mode job workers. They exit when ctx is done.
func (h *Handler) StartWorkers(ctx context.Context) {
	for range workerCount {
		go h.packWorker(ctx)
	}
}

func (h *Handler) Start(chatID int64) {
	h.general.StartResponse(chatID)
}

// CreateEmojiPack handles a chat message carrying a sticker or a pack link and
// blocks until the queued job has finished.
func (h *Handler) CreateEmojiPack(ctx context.Context, message *tgbotapi.Message) {
	packName, err := packNameFromMessage(message)
	if err != nil || message.From == nil {
		h.general.MessageResponse(message.Chat.ID, "Send me a sticker or a sticker pack link")

		return
	}

	if !h.lockChat(message.Chat.ID) {
		h.general.MessageResponse(message.Chat.ID, "You have another pack being processed, please wait")

		return
	}
	defer h.unlockChat(message.Chat.ID)

	req := domain.UserRequest{
		ChatID:           message.Chat.ID,
		UserID:           message.From.ID,
		ReplyToMessageID: message.MessageID,
		PackName:         packName,
		ErrChan:          make(chan error, 1),
	}

	select {
	case h.reqQueue <- req:
	case <-ctx.Done():
		return
	}

	msg, err := h.apis.Bot.SendMessage(req.ChatID, "Pack added to processing queue")
	if err == nil {
		defer h.apis.Bot.DeleteMessage(req.ChatID, msg.MessageID)
	}

	err = awaitResult(ctx, req.ErrChan)
	if ctx.Err() != nil {
		slog.Debug("Shutting down before the pack was done", slog.Int64("chatID", req.ChatID))

		return
	}

	if err != nil {
		h.general.MessageResponse(req.ChatID, failureMessage(err))

		slog.Error(
			"PackHandler.CreateEmojiPack",
			slog.Int64("chatID", req.ChatID),
			slog.String("pack", req.PackName),
			slog.Any("err", err),
		)
	}
}

// lockChat reports false when the chat already has a pack in flight.
func (h *Handler) lockChat(chatID int64) bool {
	return h.activityCache.Add(strconv.FormatInt(chatID, 10), struct{}{}, cache.NoExpiration) == nil
}

func (h *Handler) unlockChat(chatID int64) {
	h.activityCache.Delete(strconv.FormatInt(chatID, 10))
}

func awaitResult(ctx context.Context, errChan <-chan error) error {
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "awaitResult")
	}
}

func (h *Handler) packWorker(ctx context.Context) {
	for {
		select {
		case req := <-h.reqQueue:
			err := h.processPack(ctx, req)
			if err != nil {
				req.ErrChan <- err
			}
			close(req.ErrChan)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) processPack(ctx context.Context, req domain.UserRequest) error {
	const errMsg = "processPack"

	batch, cleanup, err := h.convert(ctx, req.PackName, DefaultLimit, nil)
	defer cleanup()
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	if len(batch.Results) == 0 {
		err = domain.Mark(errors.New("no sticker could be converted"), domain.ErrPublish)

		return errors.Wrap(err, errMsg)
	}

	report, err := publish.New(h.apis.Bot, nil).Publish(ctx, publish.Request{
		UserID:  req.UserID,
		Name:    ownedName(req, h.apis.Bot.Username()),
		Title:   batch.Title,
		Results: batch.Results,
	})
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	text := "Your emoji pack is ready: " + report.URL
	if batch.Skipped > 0 {
		text += "\n" + strconv.Itoa(batch.Skipped) + " stickers could not be converted."
	}

	return errors.Wrap(h.apis.Bot.ReplyMessage(req.ChatID, req.ReplyToMessageID, text), errMsg)
}

// ownedName gives every request its own set name, so the same source pack
// can be converted by several users and retried after a failure.
func ownedName(req domain.UserRequest, botUsername string) string {
	nonce := uuid.NewString()[:6]

	return publish.OwnedStem(publish.PackNameFromTitle(req.PackName), req.UserID, nonce, botUsername)
}

func packNameFromMessage(message *tgbotapi.Message) (string, error) {
	if message.Sticker != nil && message.Sticker.SetName != "" {
		return message.Sticker.SetName, nil
	}

	return publish.ParsePackName(message.Text)
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrFetch):
		return "Could not retrieve that sticker pack"
	case errors.Is(err, domain.ErrPublish):
		return "Could not create the emoji pack"
	default:
		return "Unknown error while processing pack"
	}
}
