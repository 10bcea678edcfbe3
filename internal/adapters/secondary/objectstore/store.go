package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"

	"model-trainer-service/internal/config"
	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

const (
	binaryPrefix = "images/"
	metaPrefix   = "meta/"
	binaryExt    = ".jpg"
	metaExt      = ".json"
)

// Store keeps artifact binaries and metadata side-cars in a MinIO/S3
// bucket, using the same object-key layout the filesystem backend uses on
// disk, so both backends answer for the same locations.
type Store struct {
	client *minio.Client
	bucket string
}

func NewStore(cfg config.StoreConfig) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
		log.WithField("bucket", cfg.Bucket).Info("object store bucket created")
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

var _ ports.ArtifactStore = (*Store)(nil)

func (s *Store) Put(ctx context.Context, key string, payload []byte) (string, error) {
	location := binaryPrefix + key + binaryExt
	if err := s.put(ctx, location, payload, "image/jpeg"); err != nil {
		return "", err
	}
	return location, nil
}

func (s *Store) PutMetadata(ctx context.Context, key string, doc []byte) (string, error) {
	location := metaPrefix + key + metaExt
	if err := s.put(ctx, location, doc, "application/json"); err != nil {
		return "", err
	}
	return location, nil
}

func (s *Store) put(ctx context.Context, location string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, location,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWriteFailure, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, location string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, location, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", location, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

func (s *Store) GetMetadata(ctx context.Context, location string) ([]byte, error) {
	return s.Get(ctx, location)
}

func (s *Store) Exists(ctx context.Context, location string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, location, minio.StatObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", location, err)
	}
	return true, nil
}

func (s *Store) ListMetadata(ctx context.Context, fn func(doc []byte) error) error {
	opts := minio.ListObjectsOptions{Prefix: metaPrefix, Recursive: true}
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return fmt.Errorf("list metadata: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, metaExt) {
			continue
		}
		doc, err := s.Get(ctx, obj.Key)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%w: bucket %q missing", domain.ErrStoreUnavailable, s.bucket)
	}
	return nil
}
