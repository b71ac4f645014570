package di

import (
	"database/sql"

	"github.com/rs/zerolog"

	"chatter/config"
	"chatter/internal/chat"
	"chatter/internal/media"
	"chatter/internal/user"
	"chatter/pkg/jwt"
)

const tokenLifetimeSeconds = 24 * 60 * 60

func ProvideChatRepository(db *sql.DB) chat.Repository {
	return chat.NewPostgresRepository(db)
}

func ProvideUserDirectory(db *sql.DB) user.Directory {
	return user.NewPostgresDirectory(db)
}

func ProvideMediaStore(cfg *config.Config, log zerolog.Logger) (media.Store, error) {
	return media.NewLocalStore(cfg.MediaPath, cfg.MediaBaseURL, log)
}

func ProvideJWT(cfg *config.Config) *jwt.JWT {
	return jwt.NewJWT(cfg.JWTSecret, tokenLifetimeSeconds)
}
