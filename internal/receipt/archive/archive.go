// Package archive keeps the original receipt images.
package archive

import (
	"context"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

type Store interface {
	// Put stores the image and returns a URL that can be linked on the
	// transaction. An empty URL means nothing was stored.
	Put(ctx context.Context, userID uuid.UUID, data []byte, mimeType string) (string, error)
}

// Nop discards images.
type Nop struct{}

func (Nop) Put(context.Context, uuid.UUID, []byte, string) (string, error) {
	return "", nil
}

// GCS writes images to a Google Cloud Storage bucket using Application
// Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
	now    func() time.Time
}

func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &GCS{client: client, bucket: bucket, now: time.Now}, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) Put(ctx context.Context, userID uuid.UUID, data []byte, mimeType string) (string, error) {
	name := ObjectName(userID, g.now(), uuid.New(), mimeType)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = mimeType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing receipt image: %w", err)
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing upload: %w", err)
	}

	return "gs://" + g.bucket + "/" + name, nil
}

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/heic":      ".heic",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

// ObjectName lays images out as receipts/<user>/<yyyy-mm-dd>/<id><ext>.
func ObjectName(userID uuid.UUID, at time.Time, id uuid.UUID, mimeType string) string {
	return path.Join("receipts", userID.String(), at.UTC().Format(time.DateOnly), id.String()+extensions[mimeType])
}
