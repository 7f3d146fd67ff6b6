//go:build integration

package s3_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittodrive/pkg/store/content"
	"github.com/marmos91/dittodrive/pkg/store/content/s3"
	contenttesting "github.com/marmos91/dittodrive/pkg/store/content/testing"
	"github.com/stretchr/testify/require"
)

// TestS3ContentStore_Integration runs the content store suite against an
// S3-compatible service.
//
// Prerequisites:
//   - Localstack (or MinIO) reachable at LOCALSTACK_ENDPOINT
//     (default http://localhost:4566)
//   - Run with: go test -tags=integration ./pkg/store/content/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3ContentStore_Integration(t *testing.T) {
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	client, err := s3.NewS3Client(ctx, s3.ClientConfig{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		MaxRetries:      3,
	})
	require.NoError(t, err)

	bucket := fmt.Sprintf("dittodrive-test-%d", time.Now().UnixNano())
	_, err = client.CreateBucket(ctx, &awss3.CreateBucketInput{Bucket: aws.String(bucket)})
	require.NoError(t, err)

	prefixes := 0
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.ContentStore {
			prefixes++
			store, err := s3.NewS3ContentStore(ctx, s3.S3ContentStoreConfig{
				Client:    client,
				Bucket:    bucket,
				KeyPrefix: fmt.Sprintf("run-%d/", prefixes),
			})
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}
