package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store turns an inline media payload into a durable reference. Payloads
// that are already references (anything that is not a data: URL) pass
// through unchanged.
type Store interface {
	Store(ctx context.Context, payload string) (string, error)
}

var errMalformedPayload = errors.New("malformed data url payload")

// LocalStore writes decoded payloads to the local filesystem and serves
// them under a base URL.
type LocalStore struct {
	basePath string
	baseURL  string
	log      zerolog.Logger
}

func NewLocalStore(basePath, baseURL string, log zerolog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &LocalStore{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log.With().Str("component", "media-store").Logger(),
	}, nil
}

func (s *LocalStore) Store(ctx context.Context, payload string) (string, error) {
	if !strings.HasPrefix(payload, "data:") {
		return payload, nil
	}

	data, err := decodeDataURL(payload)
	if err != nil {
		return "", err
	}

	ext := mimetype.Detect(data).Extension()
	name := uuid.New().String() + ext
	fullPath := filepath.Join(s.basePath, name)

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	ref := s.baseURL + "/" + name
	s.log.Debug().Str("ref", ref).Int("bytes", len(data)).Msg("stored media payload")
	return ref, nil
}

// decodeDataURL extracts the base64 body of a "data:<type>;base64,<body>"
// payload, the inline format clients upload message media in.
func decodeDataURL(payload string) ([]byte, error) {
	_, body, found := strings.Cut(payload, ",")
	if !found {
		return nil, errMalformedPayload
	}
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedPayload, err)
	}
	return data, nil
}
