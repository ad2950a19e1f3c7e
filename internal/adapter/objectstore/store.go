// Package objectstore keeps cached media in an S3-compatible bucket
// (Cloudflare R2 in production).
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

// Config describes the bucket connection.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicURL is the base URL objects are served from; empty disables URL().
	PublicURL string
}

// Store reads and writes objects in one bucket.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       *slog.Logger
}

// New creates a Store. It does not contact the bucket.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: create client: %w", err)
	}
	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		log:       logger.With("adapter", "objectstore"),
	}, nil
}

// Ping checks that the bucket exists and is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("objectstore: bucket exists: %w", err)
	}
	if !ok {
		return fmt.Errorf("objectstore: bucket %q: %w", s.bucket, domain.ErrNotFound)
	}
	return nil
}

// Get returns the object at path, or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, path)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(err, path)
	}
	return data, nil
}

// Put writes data at path, overwriting any existing object.
func (s *Store) Put(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.log.WarnContext(ctx, "put object failed", slog.String("path", path), slog.String("error", err.Error()))
		return fmt.Errorf("objectstore: put %s: %w", path, err)
	}
	return nil
}

// URL returns the public URL of path, or "" when no public URL is configured.
func (s *Store) URL(path string) string {
	if s.publicURL == "" {
		return ""
	}
	return s.publicURL + "/" + path
}

func mapError(err error, path string) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("objectstore: %s: %w", path, domain.ErrNotFound)
		}
	}
	return fmt.Errorf("objectstore: get %s: %w: %w", path, domain.ErrSourceUnavailable, err)
}
