package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/config"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Storage stores assets in an S3 bucket
type S3Storage struct {
	client    s3API
	bucket    string
	region    string
	publicURL string
	logger    *zap.Logger
}

// NewS3Storage uses static credentials when configured, otherwise the default AWS chain
func NewS3Storage(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newS3Storage(s3.NewFromConfig(awsCfg), cfg, logger), nil
}

func newS3Storage(client s3API, cfg *config.StorageConfig, logger *zap.Logger) *S3Storage {
	return &S3Storage{
		client:    client,
		bucket:    cfg.S3Bucket,
		region:    cfg.S3Region,
		publicURL: strings.TrimRight(cfg.S3PublicURL, "/"),
		logger:    logger,
	}
}

func (s *S3Storage) Upload(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error) {
	key := objectName(filename)

	// PutObject needs a seekable body to sign the payload
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read upload: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(buf))),
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.Info("Logo uploaded to S3",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("size", len(buf)),
	)
	return key, int64(len(buf)), nil
}

func (s *S3Storage) URL(storagePath string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + storagePath
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, storagePath)
}
