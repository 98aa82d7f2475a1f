package handler

import (
	"sticker2emoji/internal/config"
	"sticker2emoji/internal/handler/pack"
	"sticker2emoji/internal/infrastructure/webapi"
	"sticker2emoji/internal/service"
)

type Handlers struct {
	Pack *pack.Handler
}

func New(cfg *config.Config, apis *webapi.WebAPIs, services *service.Services) *Handlers {
	packH := pack.New(cfg, apis, services)

	handlers := &Handlers{
		Pack: packH,
	}

	return handlers
}
