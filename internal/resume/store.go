package resume

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/disha-ai/disha/internal/config"
	"github.com/disha-ai/disha/internal/logger"
)

const (
	fetchAttempts  = 3
	defaultBackoff = 500 * time.Millisecond
)

// Document is a downloaded resume file.
type Document struct {
	Key  string
	MIME string
	Data []byte
}

// Fetcher downloads resumes from an S3-compatible bucket such as Cloudflare R2.
type Fetcher struct {
	client  *s3.Client
	bucket  string
	backoff time.Duration
	log     *slog.Logger
}

// NewFetcher builds a Fetcher from storage settings using static credentials.
func NewFetcher(ctx context.Context, cfg appconfig.StorageConfig) (*Fetcher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		// Retries are handled by Fetch.
		o.RetryMaxAttempts = 1
	})

	return &Fetcher{
		client:  client,
		bucket:  cfg.Bucket,
		backoff: defaultBackoff,
		log:     logger.For("resume"),
	}, nil
}

// Fetch downloads key, retrying transient failures with linear backoff.
func (f *Fetcher) Fetch(ctx context.Context, key string) (Document, error) {
	doc, err := retry(ctx, fetchAttempts, f.backoff, func() (Document, error) {
		return f.download(ctx, key)
	})
	if err != nil {
		f.log.Error("resume download failed", "key", key, "error", err)
		return Document{}, err
	}
	return doc, nil
}

// Text downloads key and extracts its text.
func (f *Fetcher) Text(ctx context.Context, key string) (string, error) {
	doc, err := f.Fetch(ctx, key)
	if err != nil {
		return "", err
	}
	return Extract(doc.MIME, doc.Data)
}

func (f *Fetcher) download(ctx context.Context, key string) (Document, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Document{}, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return Document{}, fmt.Errorf("read object body: %w", err)
	}
	return Document{
		Key:  key,
		MIME: DetectMIME(key, aws.ToString(out.ContentType)),
		Data: buf.Bytes(),
	}, nil
}

// retry calls fn up to attempts times, waiting backoff*(i+1) between tries.
func retry[T any](ctx context.Context, attempts int, backoff time.Duration, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff * time.Duration(i+1)):
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
