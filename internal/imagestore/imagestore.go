package imagestore

import (
	"context"
	"io"
)

// ImageStore holds the image files that gallery records point at. Get and
// Delete return domain.ErrNotFound for unknown keys.
type ImageStore interface {
	Save(ctx context.Context, mimeType string, r io.Reader) (key string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}
