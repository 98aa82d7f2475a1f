package tgbot

import (
	"encoding/json"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
)

type API struct {
	bot *tgbotapi.BotAPI
}

// New connects to the Bot API. The getMe call made by the client doubles as a
// token check, so an invalid key fails here.
func New(debug bool, apiKey, endpoint string) (*API, error) {
	const errMsg = "BotAPI.New"

	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(apiKey, endpoint)
	if err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	bot.Debug = debug

	return &API{
		bot: bot,
	}, nil
}

func (b *API) Username() string {
	return b.bot.Self.UserName
}

func (b *API) Token() string {
	return b.bot.Token
}

type (
	stickerSet struct {
		Name     string    `json:"name"`
		Title    string    `json:"title"`
		Stickers []sticker `json:"stickers"`
	}
	sticker struct {
		FileID       string `json:"file_id"`
		FileUniqueID string `json:"file_unique_id"`
		IsAnimated   bool   `json:"is_animated"`
		IsVideo      bool   `json:"is_video"`
		Emoji        string `json:"emoji"`
		FileSize     int64  `json:"file_size"`
	}
)

// GetStickerSet fetches pack metadata. File names are not part of the sticker
// object, they are filled in once a file is resolved.
func (b *API) GetStickerSet(name string) (*domain.Pack, error) {
	const errMsg = "BotAPI.GetStickerSet"

	params := tgbotapi.Params{}
	params.AddNonEmpty("name", name)

	resp, err := b.bot.MakeRequest("getStickerSet", params)
	if err != nil {
		return nil, errors.Wrap(domain.Mark(err, domain.ErrFetch), errMsg)
	}

	var set stickerSet

	err = json.Unmarshal(resp.Result, &set)
	if err != nil {
		return nil, errors.Wrap(domain.Mark(err, domain.ErrFetch), errMsg)
	}

	pack := &domain.Pack{
		Name:   set.Name,
		Title:  set.Title,
		Assets: make([]domain.AssetDescriptor, 0, len(set.Stickers)),
	}

	for _, s := range set.Stickers {
		pack.Assets = append(pack.Assets, domain.AssetDescriptor{
			ID:       s.FileID,
			UniqueID: s.FileUniqueID,
			MimeType: mimeType(s),
			Emoji:    s.Emoji,
			Size:     s.FileSize,
		})
	}

	return pack, nil
}

func mimeType(s sticker) string {
	switch {
	case s.IsAnimated:
		return domain.MimeTGS
	case s.IsVideo:
		return domain.MimeWebm
	default:
		return domain.MimeWebp
	}
}

func (b *API) GetFile(fileID string) (tgbotapi.File, error) {
	const errMsg = "BotAPI.GetFile"

	file, err := b.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return tgbotapi.File{}, errors.Wrap(domain.Mark(err, domain.ErrFetch), errMsg)
	}

	return file, nil
}

// UploadStickerFile uploads a local file and returns its file_id.
// format is a Bot API sticker format: static, animated or video.
func (b *API) UploadStickerFile(userID int64, format, path string) (string, error) {
	const errMsg = "BotAPI.UploadStickerFile"

	params := tgbotapi.Params{}
	params.AddNonZero64("user_id", userID)
	params.AddNonEmpty("sticker_format", format)

	files := []tgbotapi.RequestFile{{
		Name: "sticker",
		Data: tgbotapi.FilePath(path),
	}}

	resp, err := b.bot.UploadFiles("uploadStickerFile", params, files)
	if err != nil {
		return "", errors.Wrap(domain.Mark(err, domain.ErrPublish), errMsg)
	}

	var file tgbotapi.File

	err = json.Unmarshal(resp.Result, &file)
	if err != nil {
		return "", errors.Wrap(domain.Mark(err, domain.ErrPublish), errMsg)
	}

	if file.FileID == "" {
		err = errors.New("empty file_id in response")

		return "", errors.Wrap(domain.Mark(err, domain.ErrPublish), errMsg)
	}

	return file.FileID, nil
}

type (
	InputSticker struct {
		Sticker   string   `json:"sticker"`
		Format    string   `json:"format"`
		EmojiList []string `json:"emoji_list"`
	}
	NewStickerSet struct {
		UserID      int64
		Name        string
		Title       string
		StickerType string
		Stickers    []InputSticker
	}
)

func (b *API) CreateNewStickerSet(set NewStickerSet) error {
	const errMsg = "BotAPI.CreateNewStickerSet"

	params := tgbotapi.Params{}
	params.AddNonZero64("user_id", set.UserID)
	params.AddNonEmpty("name", set.Name)
	params.AddNonEmpty("title", set.Title)
	params.AddNonEmpty("sticker_type", set.StickerType)

	err := params.AddInterface("stickers", set.Stickers)
	if err != nil {
		return errors.Wrap(err, errMsg)
	}

	_, err = b.bot.MakeRequest("createNewStickerSet", params)
	if err != nil {
		return errors.Wrap(domain.Mark(err, domain.ErrPublish), errMsg)
	}

	return nil
}

func (b *API) SendMessage(chatID int64, message string) (tgbotapi.Message, error) {
	const errMsg = "BotAPI.SendMessage"

	msg, err := b.bot.Send(tgbotapi.NewMessage(chatID, message))
	if err != nil {
		return tgbotapi.Message{}, errors.Wrap(err, errMsg)
	}

	return msg, nil
}

func (b *API) ReplyMessage(chatID int64, replyTo int, message string) error {
	const errMsg = "BotAPI.ReplyMessage"

	msg := tgbotapi.NewMessage(chatID, message)
	msg.ReplyToMessageID = replyTo

	_, err := b.bot.Send(msg)

	return errors.Wrap(err, errMsg)
}

func (b *API) DeleteMessage(chatID int64, messageID int) error {
	const errMsg = "BotAPI.DeleteMessage"

	msg := tgbotapi.NewDeleteMessage(chatID, messageID)
	_, err := b.bot.Request(msg)

	return errors.Wrap(err, errMsg)
}

func (b *API) GetUpdatesChan() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	return b.bot.GetUpdatesChan(u)
}

func (b *API) Shutdown() {
	log.Println("Stopping bot...")

	b.bot.StopReceivingUpdates()
}
