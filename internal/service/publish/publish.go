package publish

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
	"sticker2emoji/internal/infrastructure/webapi/tgbot"
)

const (
	stickerTypeCustomEmoji = "custom_emoji"
	addEmojiURL            = "https://t.me/addemoji/"
)

type (
	botAPI interface {
		Username() string
		UploadStickerFile(userID int64, format, path string) (string, error)
		CreateNewStickerSet(set tgbot.NewStickerSet) error
	}

	// Progress receives upload events.
	Progress interface {
		UploadStarted(seq, total int, res domain.NormalizedResult)
		Uploaded(seq int)
		UploadFailed(seq int, err error)
	}

	Request struct {
		UserID int64
		// Name is the set name stem; empty derives it from Title.
		Name    string
		Title   string
		Results []domain.NormalizedResult
	}

	Report struct {
		Name     string
		URL      string
		Uploaded int
		Failed   int
	}
)

type Publisher struct {
	api      botAPI
	progress Progress
}

func New(api botAPI, progress Progress) *Publisher {
	if progress == nil {
		progress = nopProgress{}
	}

	return &Publisher{
		api:      api,
		progress: progress,
	}
}

// Publish uploads every normalized file and creates a custom emoji set owned
// by req.UserID. Single upload failures are skipped.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Report, error) {
	const errMsg = "Publisher.Publish"

	stem := req.Name
	if stem == "" {
		stem = PackNameFromTitle(req.Title)
	}

	report := &Report{
		Name: SetName(stem, p.api.Username()),
	}

	title := req.Title
	if title == "" {
		title = stem
	}

	stickers := make([]tgbot.InputSticker, 0, len(req.Results))

	for i, res := range req.Results {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errMsg)
		}

		seq := i + 1
		p.progress.UploadStarted(seq, len(req.Results), res)

		format := botFormat(res.Format)

		fileID, err := p.api.UploadStickerFile(req.UserID, format, res.Path)
		if err != nil {
			report.Failed++
			p.progress.UploadFailed(seq, err)

			slog.Debug("Upload failed", slog.String("path", res.Path), slog.Any("err", err))

			continue
		}

		report.Uploaded++
		p.progress.Uploaded(seq)

		stickers = append(stickers, tgbot.InputSticker{
			Sticker:   fileID,
			Format:    format,
			EmojiList: []string{res.Emoji},
		})
	}

	if len(stickers) == 0 {
		err := domain.Mark(errors.New("no stickers uploaded successfully"), domain.ErrPublish)

		return nil, errors.Wrap(err, errMsg)
	}

	err := p.api.CreateNewStickerSet(tgbot.NewStickerSet{
		UserID:      req.UserID,
		Name:        report.Name,
		Title:       title,
		StickerType: stickerTypeCustomEmoji,
		Stickers:    stickers,
	})
	if err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	report.URL = addEmojiURL + report.Name

	return report, nil
}

// botFormat maps output tags to Bot API sticker formats. Animated emoji are
// WEBM videos, which the Bot API calls "video"; its "animated" means TGS.
func botFormat(tag domain.FormatTag) string {
	if tag == domain.FormatAnimated {
		return "video"
	}

	return "static"
}

type nopProgress struct{}

func (nopProgress) UploadStarted(int, int, domain.NormalizedResult) {}
func (nopProgress) Uploaded(int) {}
func (nopProgress) UploadFailed(int, error) {}
