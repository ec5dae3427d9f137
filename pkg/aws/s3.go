package aws

import (
	"context"
	"fmt"
	"io"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client creates a new S3 client from AWS config. Path-style addressing
// is forced when a custom endpoint is configured.
func NewS3Client(cfg sdkaws.Config, usePathStyle bool) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = usePathStyle
	})
}

// ObjectUploader stores a stream under bucket/key.
type ObjectUploader interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error
}

// S3Uploader streams objects to S3 using the multipart upload manager, so
// the body does not need a known length.
type S3Uploader struct {
	uploader *manager.Uploader
}

func NewS3Uploader(client *s3.Client) *S3Uploader {
	return &S3Uploader{uploader: manager.NewUploader(client)}
}

func (u *S3Uploader) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	if bucket == "" {
		return fmt.Errorf("empty bucket")
	}
	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      sdkaws.String(bucket),
		Key:         sdkaws.String(key),
		ContentType: sdkaws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s failed: %w", bucket, key, err)
	}
	return nil
}
