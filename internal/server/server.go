package server

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sticker2emoji/internal/config"
	"sticker2emoji/internal/handler"
)

type botApi interface {
	GetUpdatesChan() tgbotapi.UpdatesChannel
	Shutdown()
}

type (
	InitParams struct {
		Config   *config.Config
		Api      botApi
		Handlers *handler.Handlers
	}
	Server struct {
		cfg      *config.Config
		api      botApi
		handlers *handler.Handlers
	}
)

func New(p *InitParams) *Server {
	return &Server{
		cfg:      p.Config,
		api:      p.Api,
		handlers: p.Handlers,
	}
}

// Start polls for updates until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	updatesChan := s.api.GetUpdatesChan()

	s.handlers.Pack.StartWorkers(ctx)

	fmt.Println("Server started!")

	for {
		select {
		case update, ok := <-updatesChan:
			if !ok {
				return
			}

			go s.handleUpdate(ctx, &update)
		case <-ctx.Done():
			s.api.Shutdown()

			return
		}
	}
}

func (s *Server) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	if update.Message.IsCommand() {
		if update.Message.Command() == "start" {
			s.handlers.Pack.Start(update.Message.Chat.ID)
		}

		return
	}

	s.handlers.Pack.CreateEmojiPack(ctx, update.Message)
}
