// Package objectstore opens model artifacts and datasets from the local
// filesystem or from an S3-compatible bucket.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const s3Scheme = "s3://"

// Config holds the S3 connection settings. An empty Endpoint disables
// s3:// locations.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
	Region    string
}

// Opener resolves a location to a readable stream. Locations of the form
// s3://bucket/key are read through MinIO; anything else is a local path.
type Opener struct {
	client *minio.Client
	logger *slog.Logger
}

// New creates an Opener. The MinIO client is only built when an endpoint is
// configured; construction does not contact the server.
func New(cfg Config, logger *slog.Logger) (*Opener, error) {
	o := &Opener{logger: logger}
	if cfg.Endpoint == "" {
		return o, nil
	}

	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	o.client = client
	return o, nil
}

// Open returns a reader for location. The caller must close it.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, s3Scheme) {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", location, err)
		}
		return f, nil
	}

	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}
	if o.client == nil {
		return nil, fmt.Errorf("open %s: S3_ENDPOINT is not configured", location)
	}

	obj, err := o.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", location, err)
	}
	// GetObject is lazy; Stat performs the request so a missing object
	// surfaces here rather than on the first Read.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("get object %s: %w", location, os.ErrNotExist)
		}
		return nil, fmt.Errorf("stat object %s: %w", location, err)
	}

	o.logger.Debug("opened object", "bucket", bucket, "key", key, "size", info.Size, "etag", info.ETag)
	return obj, nil
}

// ParseS3Location splits s3://bucket/key into its parts.
func ParseS3Location(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("location %q is not an s3:// URL", location)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", errors.New("s3 location must be s3://bucket/key")
	}
	return bucket, key, nil
}
