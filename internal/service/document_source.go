package service

import (
	"context"
	"fmt"
	"strings"

	"niyamr/internal/domain"
	"niyamr/internal/port"
)

// DocumentSource fetches documents held in object storage.
type DocumentSource interface {
	// Fetch downloads the object at bucket/key. An empty bucket means the
	// configured default bucket.
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
	Enabled() bool
}

type documentSource struct {
	storage       port.ObjectStorage
	defaultBucket string
	maxBytes      int64
}

// NewDocumentSource creates a DocumentSource over storage. A nil storage
// yields a source whose Fetch always fails with domain.ErrStorageDisabled.
func NewDocumentSource(storage port.ObjectStorage, defaultBucket string, maxBytes int64) DocumentSource {
	return &documentSource{storage: storage, defaultBucket: defaultBucket, maxBytes: maxBytes}
}

func (s *documentSource) Enabled() bool {
	return s.storage != nil
}

func (s *documentSource) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	if s.storage == nil {
		return nil, domain.ErrStorageDisabled
	}
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return nil, domain.ErrMissingDocument
	}
	if bucket == "" {
		bucket = s.defaultBucket
	}
	if bucket == "" {
		return nil, fmt.Errorf("no bucket given and no default configured: %w", domain.ErrMissingDocument)
	}

	data, err := s.storage.Download(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("object %s/%s is %d bytes: %w", bucket, key, len(data), domain.ErrFileTooLarge)
	}
	return data, nil
}
