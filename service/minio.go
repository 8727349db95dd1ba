package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/yisunguk/drawing-detector-sub003/config"
	"github.com/yisunguk/drawing-detector-sub003/model"
	"github.com/yisunguk/drawing-detector-sub003/pkg/apperr"
)

// MinioLister lists a bucket directly instead of going through the
// blob-listing service. Selected by storage.mode in the config.
type MinioLister struct {
	client *minio.Client
	bucket string
}

func NewMinioLister(cfg *config.MinioConfig) (*MinioLister, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioLister{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// List returns the direct children of path. Non-recursive listing, so
// common prefixes come back as folder entries.
func (l *MinioLister) List(ctx context.Context, path string) ([]model.BrowseEntry, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    path,
		Recursive: false,
	}

	var entries []model.BrowseEntry
	for obj := range l.client.ListObjects(ctx, l.bucket, opts) {
		if obj.Err != nil {
			return nil, apperr.IO("문서 목록을 불러오지 못했습니다", obj.Err)
		}
		if obj.Key == path {
			continue
		}

		if strings.HasSuffix(obj.Key, "/") {
			entries = append(entries, model.BrowseEntry{
				Name: entryName(obj.Key, path),
				Path: obj.Key,
				Type: model.EntryFolder,
			})
			continue
		}

		entries = append(entries, model.BrowseEntry{
			Name: entryName(obj.Key, path),
			Path: obj.Key,
			Type: model.EntryFile,
			Size: obj.Size,
		})
	}

	return entries, nil
}

// entryName strips the listing prefix and any trailing slash.
func entryName(key, prefix string) string {
	name := strings.TrimPrefix(key, prefix)
	return strings.TrimSuffix(name, "/")
}
