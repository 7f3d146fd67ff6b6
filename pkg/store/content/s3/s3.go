package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/marmos91/dittodrive/pkg/store/content"
)

// S3ContentStore stores each blob as one S3 object named
// <keyPrefix><contentID>.
//
// Uploads are bounded by the drive's upload size limit (megabytes, not
// gigabytes), so every write is a single PutObject.
type S3ContentStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	metrics   S3Metrics
}

// S3ContentStoreConfig contains configuration for the S3 content store.
type S3ContentStoreConfig struct {
	// Client is a configured S3 client (see NewS3Client)
	Client *s3.Client

	// Bucket must exist and be accessible; checked at construction
	Bucket string

	// KeyPrefix is prepended to every object key (e.g. "documents/")
	KeyPrefix string

	// Metrics is optional
	Metrics S3Metrics
}

// NewS3ContentStore verifies bucket access and returns a store.
func NewS3ContentStore(ctx context.Context, cfg S3ContentStoreConfig) (*S3ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &S3ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		metrics:   metrics,
	}, nil
}

func (s *S3ContentStore) getObjectKey(id content.ContentID) string {
	return s.keyPrefix + string(id)
}

func (s *S3ContentStore) contentID(key string) content.ContentID {
	return content.ContentID(strings.TrimPrefix(key, s.keyPrefix))
}

// isNotFound recognizes both NoSuchKey (GetObject) and the bare 404
// NotFound that HeadObject returns.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}

func (s *S3ContentStore) WriteContent(ctx context.Context, id content.ContentID, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return content.ErrInvalidContentID
	}

	start := time.Now()
	defer func() { s.metrics.ObserveOperation("PutObject", time.Since(start), err) }()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.getObjectKey(id)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to write object to S3: %w", err)
	}

	s.metrics.RecordBytes("write", int64(len(data)))
	return nil
}

func (s *S3ContentStore) ReadContent(ctx context.Context, id content.ContentID) (rc io.ReadCloser, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { s.metrics.ObserveOperation("GetObject", time.Since(start), err) }()

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	return &metricsReadCloser{ReadCloser: result.Body, metrics: s.metrics, operation: "read"}, nil
}

func (s *S3ContentStore) GetContentSize(ctx context.Context, id content.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("failed to head object: %w", err)
	}
	if result.ContentLength == nil {
		return 0, fmt.Errorf("content length not available for %s", id)
	}
	return uint64(*result.ContentLength), nil
}

func (s *S3ContentStore) ContentExists(ctx context.Context, id content.ContentID) (bool, error) {
	_, err := s.GetContentSize(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, content.ErrContentNotFound) {
		return false, nil
	}
	return false, err
}

func (s *S3ContentStore) Delete(ctx context.Context, id content.ContentID) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	defer func() { s.metrics.ObserveOperation("DeleteObject", time.Since(start), err) }()

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}

// GetStorageStats lists the prefix to compute usage. Capacity is unbounded.
func (s *S3ContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	var used, count uint64
	err := s.listObjects(ctx, func(obj types.Object) {
		if obj.Size != nil {
			used += uint64(*obj.Size)
		}
		count++
	})
	if err != nil {
		return nil, err
	}

	const maxUint64 = ^uint64(0)
	return &content.StorageStats{
		TotalSize:     maxUint64,
		UsedSize:      used,
		AvailableSize: maxUint64,
		ContentCount:  count,
		AverageSize:   content.AverageSize(used, count),
	}, nil
}

func (s *S3ContentStore) ListAllContent(ctx context.Context) ([]content.ContentID, error) {
	var ids []content.ContentID
	err := s.listObjects(ctx, func(obj types.Object) {
		if obj.Key != nil {
			ids = append(ids, s.contentID(*obj.Key))
		}
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *S3ContentStore) listObjects(ctx context.Context, fn func(types.Object)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			fn(obj)
		}
	}
	return nil
}

// DeleteBatch removes objects in DeleteObjects calls of at most 1000 keys.
func (s *S3ContentStore) DeleteBatch(ctx context.Context, ids []content.ContentID) (map[content.ContentID]error, error) {
	failures := make(map[content.ContentID]error)

	const maxBatchSize = 1000

	for i := 0; i < len(ids); i += maxBatchSize {
		if err := ctx.Err(); err != nil {
			for _, rest := range ids[i:] {
				failures[rest] = err
			}
			return failures, err
		}

		batch := ids[i:min(i+maxBatchSize, len(ids))]

		objects := make([]types.ObjectIdentifier, len(batch))
		for j, id := range batch {
			objects[j] = types.ObjectIdentifier{Key: aws.String(s.getObjectKey(id))}
		}

		result, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			for _, id := range batch {
				failures[id] = err
			}
			continue
		}

		for _, deleteErr := range result.Errors {
			if deleteErr.Key == nil {
				continue
			}
			msg := "unknown error"
			if deleteErr.Code != nil && deleteErr.Message != nil {
				msg = fmt.Sprintf("%s: %s", *deleteErr.Code, *deleteErr.Message)
			}
			failures[s.contentID(*deleteErr.Key)] = errors.New(msg)
		}
	}

	return failures, nil
}
