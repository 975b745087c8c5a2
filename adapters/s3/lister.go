// Package s3 adapts AWS S3 to the assembler's object-store ports. The
// temporary credentials issued for one assembly run are passed into
// every call and held only in per-run client values, never in process
// environment or other ambient state.
package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"rastercube/domain/request"
	apperrors "rastercube/internal/errors"
)

const defaultRegion = "us-east-1"

// Lister implements ports.ObjectLister over the S3 ListObjectsV2 API.
type Lister struct{}

// NewLister creates an S3 object lister
func NewLister() *Lister {
	return &Lister{}
}

// List walks every page of keys under the bucket prefix.
func (l *Lister) List(ctx context.Context, bucket request.BucketSpec, creds request.Credentials) ([]string, error) {
	client := newClient(bucket, creds)

	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(bucket.Name),
		Prefix: aws.String(bucket.Prefix),
	}

	var keys []string
	paginator := awss3.NewListObjectsV2Paginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.TransientIO(
				fmt.Sprintf("listing s3://%s/%s", bucket.Name, bucket.Prefix), err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// newClient builds a per-call S3 client from run-scoped credentials.
func newClient(bucket request.BucketSpec, creds request.Credentials) *awss3.Client {
	region := bucket.Region
	if region == "" {
		region = defaultRegion
	}
	cfg := aws.Config{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
	}
	return awss3.NewFromConfig(cfg)
}
