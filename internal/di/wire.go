//go:build wireinject
// +build wireinject

package di

import (
	"database/sql"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"chatter/config"
	"chatter/internal/api"
	"chatter/internal/auth"
	"chatter/internal/chat"
)

func InitializeServer(cfg *config.Config, db *sql.DB, log zerolog.Logger) (*api.Server, error) {
	wire.Build(
		ProvideChatRepository,
		ProvideUserDirectory,
		ProvideMediaStore,
		ProvideJWT,
		chat.NewService,
		chat.NewJSONHandler,
		auth.NewMiddleware,
		api.NewServer,
	)
	return nil, nil
}
