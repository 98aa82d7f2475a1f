package publish

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
	"sticker2emoji/internal/infrastructure/webapi/tgbot"
)

type fakeBot struct {
	failPaths map[string]bool
	uploads   []string
	formats   []string
	created   *tgbot.NewStickerSet
	createErr error
}

func (f *fakeBot) Username() string {
	return "emojibot"
}

func (f *fakeBot) UploadStickerFile(userID int64, format, path string) (string, error) {
	if f.failPaths[path] {
		return "", domain.Mark(errors.New("STICKER_VIDEO_LONG"), domain.ErrPublish)
	}
	f.uploads = append(f.uploads, path)
	f.formats = append(f.formats, format)
	return "id-" + path, nil
}

func (f *fakeBot) CreateNewStickerSet(set tgbot.NewStickerSet) error {
	f.created = &set
	return f.createErr
}

func results() []domain.NormalizedResult {
	return []domain.NormalizedResult{
		{Path: "emoji_001.png", Emoji: "😺", Format: domain.FormatStatic},
		{Path: "emoji_002.webm", Emoji: "😸", Format: domain.FormatAnimated},
		{Path: "emoji_003.png", Emoji: "😹", Format: domain.FormatStatic},
	}
}

func TestPublish(t *testing.T) {
	bot := &fakeBot{}

	report, err := New(bot, nil).Publish(context.Background(), Request{
		UserID:  42,
		Title:   "Cute Cats",
		Results: results(),
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if report.Name != "Cute_Cats_by_emojibot" || report.URL != "https://t.me/addemoji/Cute_Cats_by_emojibot" {
		t.Errorf("report = %+v", report)
	}
	if report.Uploaded != 3 || report.Failed != 0 {
		t.Errorf("uploaded=%d failed=%d", report.Uploaded, report.Failed)
	}
	if bot.formats[1] != "video" || bot.formats[0] != "static" {
		t.Errorf("formats = %v, animated emoji upload as video", bot.formats)
	}

	set := bot.created
	if set == nil || set.StickerType != "custom_emoji" || set.UserID != 42 || set.Title != "Cute Cats" {
		t.Fatalf("created = %+v", set)
	}
	if len(set.Stickers) != 3 || set.Stickers[1].EmojiList[0] != "😸" || set.Stickers[1].Sticker != "id-emoji_002.webm" {
		t.Errorf("stickers = %+v", set.Stickers)
	}
}

func TestPublish_CustomName(t *testing.T) {
	bot := &fakeBot{}

	report, err := New(bot, nil).Publish(context.Background(), Request{UserID: 1, Name: "mine", Title: "T", Results: results()})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if report.Name != "mine_by_emojibot" {
		t.Errorf("name = %s", report.Name)
	}
}

func TestPublish_SkipsFailedUploads(t *testing.T) {
	bot := &fakeBot{failPaths: map[string]bool{"emoji_002.webm": true}}

	report, err := New(bot, nil).Publish(context.Background(), Request{UserID: 1, Title: "T", Results: results()})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if report.Uploaded != 2 || report.Failed != 1 || len(bot.created.Stickers) != 2 {
		t.Errorf("report=%+v stickers=%d", report, len(bot.created.Stickers))
	}
}

func TestPublish_NothingUploaded(t *testing.T) {
	bot := &fakeBot{failPaths: map[string]bool{"emoji_001.png": true, "emoji_002.webm": true, "emoji_003.png": true}}

	_, err := New(bot, nil).Publish(context.Background(), Request{UserID: 1, Title: "T", Results: results()})
	if !errors.Is(err, domain.ErrPublish) {
		t.Fatalf("err = %v, want ErrPublish", err)
	}
	if bot.created != nil {
		t.Error("set must not be created without stickers")
	}
}

func TestPublish_CreateFails(t *testing.T) {
	bot := &fakeBot{createErr: domain.Mark(errors.New("STICKERSET_NAME_OCCUPIED"), domain.ErrPublish)}

	_, err := New(bot, nil).Publish(context.Background(), Request{UserID: 1, Title: "T", Results: results()})
	if !errors.Is(err, domain.ErrPublish) {
		t.Fatalf("err = %v, want ErrPublish", err)
	}
}
