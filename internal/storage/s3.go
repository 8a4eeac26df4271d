package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/linkratio/linkratio/internal/config"
	"github.com/linkratio/linkratio/internal/model"
	"github.com/linkratio/linkratio/internal/report"
)

// tsvContentType is the MIME type used for uploaded TSV objects.
const tsvContentType = "text/tab-separated-values; charset=utf-8"

// S3Store uploads crawl results as TSV objects and returns presigned
// GET links so API clients can download results without credentials.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient

	bucket     string
	linkExpiry time.Duration
}

// NewS3Store builds an S3Store from the configuration. When the config
// carries an endpoint override, the client is switched to path-style
// addressing, which S3-compatible stores like MinIO and LocalStack
// expect.
func NewS3Store(ctx context.Context, cfg *config.S3Config) (*S3Store, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, config.ErrNoS3Bucket
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	expiry := cfg.LinkExpiry
	if expiry <= 0 {
		expiry = config.DefaultLinkExpiry
	}

	return &S3Store{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		linkExpiry: expiry,
	}, nil
}

// StoreResult renders the result as TSV, uploads it under the task ID,
// and returns a presigned download link.
func (s *S3Store) StoreResult(ctx context.Context, taskID string, result *model.CrawlResult) (string, error) {
	var buf bytes.Buffer
	if _, err := report.NewTSVWriter(&buf).Write(result); err != nil {
		return "", fmt.Errorf("failed to render TSV: %w", err)
	}

	key := ObjectKey(taskID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(tsvContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload result %s: %w", key, err)
	}

	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.linkExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign result link for %s: %w", key, err)
	}

	return presigned.URL, nil
}

// ObjectKey is the bucket key for a task's TSV output.
func ObjectKey(taskID string) string {
	return "results/" + taskID + ".tsv"
}
