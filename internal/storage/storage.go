package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(config.LevelFromEnv())
}

// Key prefixes for uploaded images
const (
	RecipeImagePrefix = "recipes/images/"
	AvatarPrefix      = "users/"
)

// ImageStore persists uploaded images and returns the URL they are served from
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a URL returned by Save back to its key; ok is false for
	// URLs this store did not produce
	KeyFromURL(url string) (key string, ok bool)
}

// ObjectKey builds a fresh key under prefix with the given extension
func ObjectKey(prefix, ext string) string {
	return prefix + uuid.NewString() + "." + strings.TrimPrefix(ext, ".")
}

// New builds the store selected by STORAGE_DRIVER
func New(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		store, err := NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		return store, nil
	case "local", "":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

func trimBase(base, url string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}
