package backup

import (
	"approachlog/internal/structures"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the subset of an S3-compatible bucket the picker needs.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

type MinIOStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(cfg structures.ObjectStoreConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

func (s *MinIOStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *MinIOStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func (s *MinIOStore) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects %s: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// ObjectStorePicker mirrors backups into a bucket. Keys carry the dated
// file name, so the lexically greatest key is the newest backup.
type ObjectStorePicker struct {
	store  ObjectStore
	prefix string
}

func NewObjectStorePicker(store ObjectStore, prefix string) *ObjectStorePicker {
	return &ObjectStorePicker{store: store, prefix: prefix}
}

func (p *ObjectStorePicker) Name() string { return "objectstore" }

func (p *ObjectStorePicker) Save(ctx context.Context, suggestedName string, data []byte) (string, error) {
	if err := p.store.EnsureBucket(ctx); err != nil {
		return "", err
	}
	contentType := "application/json"
	if isZstd(data) {
		contentType = "application/zstd"
	}
	if err := p.store.PutObject(ctx, suggestedName, data, contentType); err != nil {
		return "", err
	}
	return suggestedName, nil
}

func (p *ObjectStorePicker) Open(ctx context.Context) (string, []byte, error) {
	keys, err := p.store.ListObjects(ctx, p.prefix+"-backup-")
	if err != nil {
		return "", nil, err
	}
	if len(keys) == 0 {
		return "", nil, ErrNoBackup
	}
	sort.Strings(keys)
	key := keys[len(keys)-1]

	data, err := p.store.GetObject(ctx, key)
	if err != nil {
		return key, nil, err
	}
	return key, data, nil
}
