// Package archive uploads text exports to S3-compatible object storage.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
	"github.com/taxiwatch/taxiwatch-backend/pkg/metrics"
)

// Archiver stores a named text document.
type Archiver interface {
	Upload(ctx context.Context, name, body string) (*Object, error)
}

// Object describes an uploaded document
type Object struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
}

// objectPutter is the part of the S3 client the archive uses.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive writes documents under a key prefix in one bucket.
type S3Archive struct {
	client objectPutter
	bucket string
	prefix string
	logger *logger.Logger
}

// NewS3Archive creates an archive from configuration. Static credentials are
// used when set, otherwise the default AWS credential chain.
func NewS3Archive(ctx context.Context, cfg *config.ArchiveConfig, log *logger.Logger) (*S3Archive, error) {
	if !cfg.Enabled() {
		return nil, errors.ArchiveUnavailable(nil)
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible stores (MinIO, B2) need path-style addressing
			o.UsePathStyle = true
		}
	})

	log.Info().Str("bucket", cfg.Bucket).Str("prefix", cfg.Prefix).Msg("archive initialized")
	return newWithClient(client, cfg.Bucket, cfg.Prefix, log), nil
}

func newWithClient(client objectPutter, bucket, prefix string, log *logger.Logger) *S3Archive {
	return &S3Archive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: log.WithComponent("archive"),
	}
}

// Key returns the object key for a document name.
func (a *S3Archive) Key(name string) string {
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}

// Upload implements Archiver.
func (a *S3Archive) Upload(ctx context.Context, name, body string) (*Object, error) {
	key := a.Key(name)
	size := int64(len(body))

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          strings.NewReader(body),
		ContentType:   aws.String("text/plain; charset=utf-8"),
		ContentLength: aws.Int64(size),
		Metadata: map[string]string{
			"upload-source": "taxiwatch",
		},
	})
	if err != nil {
		metrics.ArchiveUploadsTotal.WithLabelValues("error").Inc()
		a.logger.Error().Err(err).Str("key", key).Msg("archive upload failed")
		return nil, errors.ArchiveUnavailable(err)
	}

	metrics.ArchiveUploadsTotal.WithLabelValues("ok").Inc()
	a.logger.Info().Str("key", key).Int64("size", size).Msg("archive upload complete")
	return &Object{Bucket: a.bucket, Key: key, Size: size}, nil
}
