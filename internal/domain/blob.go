package domain

import (
	"context"
	"io"
)

// BlobWriter uploads data to object storage. Used to publish tier metadata
// descriptors under {metadataBaseUri}{tierId}.json keys.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}
