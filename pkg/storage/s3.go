package storage

import (
	"context"
	"time"

	appconfig "maintenance-service/pkg/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Presigner issues time-limited upload credentials for a storage key.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
}

// S3Presigner issues presigned S3 PUT URLs.
type S3Presigner struct {
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// NewS3Presigner builds a presigner from the storage configuration. Static
// credentials are used when provided; otherwise the default AWS credential
// chain applies.
func NewS3Presigner(ctx context.Context, cfg *appconfig.StorageConfig) (*S3Presigner, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Presigner{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  cfg.UploadExpiry,
	}, nil
}

// PresignPut returns a URL that permits a single PUT of the given content
// type to key until the URL expires.
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.expiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
