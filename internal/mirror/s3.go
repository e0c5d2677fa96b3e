// Package mirror re-hosts generated images in S3 and hands back a
// pre-signed URL, for when the platform refuses to fetch from the CDN.
package mirror

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/lora-autoposter/internal/imagecheck"
)

// DefaultExpiry keeps the URL valid well past container processing.
const DefaultExpiry = time.Hour

const keyPrefix = "mirror/"

// ObjectPutter is the S3 upload call used here. *s3.Client satisfies it.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner is the S3 presign call used here. *s3.PresignClient satisfies it.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Fetcher downloads and inspects the source image. *imagecheck.Checker satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, *imagecheck.Info, error)
}

// S3Mirror copies images into one bucket.
type S3Mirror struct {
	fetcher Fetcher
	putter  ObjectPutter
	presign Presigner
	bucket  string
	expiry  time.Duration
}

// New creates an S3Mirror backed by client.
func New(client *s3.Client, bucket string, fetcher Fetcher) *S3Mirror {
	return &S3Mirror{
		fetcher: fetcher,
		putter:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		expiry:  DefaultExpiry,
	}
}

// Mirror downloads sourceURL, uploads it under mirror/, and returns a
// pre-signed GET URL.
func (m *S3Mirror) Mirror(ctx context.Context, sourceURL string) (string, error) {
	data, info, err := m.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("download source image: %w", err)
	}

	key := keyPrefix + time.Now().UTC().Format("2006/01/02/") + uuid.NewString() + extension(info.ContentType)
	log.Debug().
		Str("bucket", m.bucket).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("Uploading mirrored image to S3")

	_, err = m.putter.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(info.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload mirrored image to S3: %w", err)
	}

	result, err := m.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = m.expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}

	log.Info().Str("key", key).Msg("Image mirrored to S3")
	return result.URL, nil
}

func extension(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
