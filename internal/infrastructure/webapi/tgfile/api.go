package tgfile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
)

const (
	maxDownloadSize = 10 << 20
	defaultTimeout  = time.Second * 30

	// Bot API download links stay valid for at least an hour.
	fileLinkTTL = 55 * time.Minute
)

type fileResolver interface {
	GetFile(fileID string) (tgbotapi.File, error)
	Token() string
}

// API downloads sticker files through Bot API file links. fileEndpoint is a
// format string taking the bot token and the file path.
func New(bot fileResolver, fileEndpoint string) *API {
	if fileEndpoint == "" {
		fileEndpoint = tgbotapi.FileEndpoint
	}

	return &API{
		bot:          bot,
		fileEndpoint: fileEndpoint,
		client:       &http.Client{Timeout: defaultTimeout},
		links:        cache.New(fileLinkTTL, 2*fileLinkTTL),
	}
}

type API struct {
	bot          fileResolver
	fileEndpoint string
	client       *http.Client
	links        *cache.Cache
}

// Download resolves the asset's file path and returns the descriptor with
// FileName set together with the file content.
func (a *API) Download(ctx context.Context, asset domain.AssetDescriptor) (domain.AssetDescriptor, []byte, error) {
	const errMsg = "FileAPI.Download"

	filePath, err := a.resolve(asset.ID)
	if err != nil {
		return asset, nil, errors.Wrap(err, errMsg)
	}

	if asset.FileName == "" {
		asset.FileName = path.Base(filePath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(a.fileEndpoint, a.bot.Token(), filePath), nil)
	if err != nil {
		return asset, nil, errors.Wrap(domain.Mark(err, domain.ErrFetch), errMsg)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return asset, nil, errors.Wrap(domain.Mark(err, domain.ErrFetch), errMsg)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.links.Delete(asset.ID)
		err = errors.New("response status code " + resp.Status)

		return asset, nil, errors.Wrap(domain.Mark(err, domain.ErrFetch), errMsg)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return asset, nil, errors.Wrap(domain.Mark(err, domain.ErrFetch), errMsg)
	}

	if len(data) > maxDownloadSize {
		err = fmt.Errorf("input file too large (>%dMB)", maxDownloadSize>>20)

		return asset, nil, errors.Wrap(domain.Mark(err, domain.ErrFetch), errMsg)
	}

	return asset, data, nil
}

func (a *API) resolve(fileID string) (string, error) {
	if cached, hit := a.links.Get(fileID); hit {
		return cached.(string), nil
	}

	file, err := a.bot.GetFile(fileID)
	if err != nil {
		return "", errors.Wrap(err, "resolve")
	}

	if file.FilePath == "" {
		err = errors.New("file has no download path")

		return "", errors.Wrap(domain.Mark(err, domain.ErrFetch), "resolve")
	}

	a.links.Set(fileID, file.FilePath, cache.DefaultExpiration)

	return file.FilePath, nil
}
