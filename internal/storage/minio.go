// Package storage reads the PDF corpus from object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hangarops/docsense/internal/domain"
)

// Store implements domain.CorpusSource over a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// Config holds MinIO connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// New connects to MinIO and verifies the corpus bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
	}

	return &Store{client: cli, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// List returns references to all PDF objects under the corpus prefix.
// The object key is the canonical document path.
func (s *Store) List(ctx context.Context) ([]domain.DocumentRef, error) {
	var refs []domain.DocumentRef

	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		if !strings.EqualFold(path.Ext(obj.Key), ".pdf") {
			continue
		}
		fileName := path.Base(obj.Key)
		refs = append(refs, domain.DocumentRef{
			Path:     obj.Key,
			Title:    titleFromFileName(fileName),
			FileName: fileName,
		})
	}

	return refs, nil
}

// Fetch downloads one document's raw bytes.
func (s *Store) Fetch(ctx context.Context, docPath string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, docPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", docPath, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", docPath, err)
	}
	return data, nil
}

// HealthCheck verifies bucket reachability.
func (s *Store) HealthCheck(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("bucket exists: %w", err)
	}
	return nil
}

// titleFromFileName turns "wing_inspection-manual.pdf" into "Wing Inspection Manual".
func titleFromFileName(fileName string) string {
	name := strings.TrimSuffix(fileName, path.Ext(fileName))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
