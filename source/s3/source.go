package s3

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mwantia/snaptree/data"
	"github.com/mwantia/snaptree/source"
)

// S3Source browses an object-store namespace as a snapshot hierarchy.
// Objects are laid out as "<root>/<snapshot><path>"; immediate children
// come from non-recursive (delimiter) listings, so directories are the
// common prefixes the listing reports and never need to exist as
// objects themselves.
type S3Source struct {
	mu sync.RWMutex

	client     *minio.Client
	bucketName string
}

func NewS3Source(endpoint, bucketName, accessKey, secretKey string, useSsl bool) (*S3Source, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSsl,
	})
	if err != nil {
		return nil, err
	}

	return &S3Source{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Name returns the identifier name defined for this source.
func (*S3Source) Name() string {
	return "s3"
}

// Open is part of the lifecycle behaviour and gets called when opening this source.
func (ss *S3Source) Open(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	exists, err := ss.client.BucketExists(ctx, ss.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("s3: bucket %q does not exist", ss.bucketName)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this source.
func (ss *S3Source) Close(ctx context.Context) error {
	return nil
}

// FetchImmediateChildren returns every direct child of parentPath
// under the given browse context.
func (ss *S3Source) FetchImmediateChildren(ctx context.Context, bctx data.BrowseContext, parentPath string) ([]data.Entry, error) {
	base := fmt.Sprintf("%d/%d", bctx.RootID, bctx.SnapshotID)
	prefix := base + data.NormalizePath(parentPath)
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	ss.mu.RLock()
	defer ss.mu.RUnlock()

	entries := make([]data.Entry, 0)
	for object := range ss.client.ListObjects(ctx, ss.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if object.Err != nil {
			return nil, object.Err
		}
		if object.Key == prefix {
			continue
		}

		path := data.NormalizePath(strings.TrimPrefix(object.Key, base))
		entry := data.NewEntry(source.PathID(path), path, data.KindFile)

		if strings.HasSuffix(object.Key, "/") {
			entry.Kind = data.KindDirectory
		} else {
			size := object.Size
			entry.Size = &size
			if !object.LastModified.IsZero() {
				modified := object.LastModified.UTC()
				entry.ModifiedAt = &modified
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
