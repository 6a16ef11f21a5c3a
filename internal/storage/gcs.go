package storage

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores proofs in a Cloud Storage bucket.
type GCS struct {
	Client *storage.Client
	Bucket string
}

// NewGCS uses credJSON when given and application default credentials otherwise.
func NewGCS(ctx context.Context, bucket, credJSON string) (*GCS, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{Client: client, Bucket: bucket}, nil
}

func (g *GCS) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	w := g.Client.Bucket(g.Bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close gcs object: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.Bucket, name), nil
}

func (g *GCS) Close() error {
	return g.Client.Close()
}
