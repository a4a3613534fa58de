// Package storage downloads résumés from S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/cv-keyword-analyzer/internal/config"
	"github.com/jonathan/cv-keyword-analyzer/internal/logging"
)

// MaxObjectBytes caps a downloaded résumé, matching the upload limit.
const MaxObjectBytes = 10 << 20

var (
	// ErrInvalidURI is returned for references that are not s3://bucket/key.
	ErrInvalidURI = errors.New("invalid object URI, expected s3://bucket/key")
	// ErrObjectNotFound is returned when the bucket has no such key.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectTooLarge is returned when the object exceeds MaxObjectBytes.
	ErrObjectTooLarge = errors.New("object exceeds the size limit")
)

// Object identifies a stored résumé.
type Object struct {
	Bucket string
	Key    string
}

// IsURI reports whether s looks like an s3:// reference.
func IsURI(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "s3://")
}

// ParseURI parses s3://bucket/key.
func ParseURI(raw string) (Object, error) {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Scheme, "s3") {
		return Object{}, fmt.Errorf("%w: %q", ErrInvalidURI, raw)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Object{}, fmt.Errorf("%w: %q", ErrInvalidURI, raw)
	}
	return Object{Bucket: u.Host, Key: key}, nil
}

// objectGetter is the part of *s3.Client the downloader uses.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Downloader fetches objects into temporary files.
type Downloader struct {
	client objectGetter
	log    logrus.FieldLogger
}

// NewDownloader builds an S3 client from cfg. Static credentials are used
// when both keys are set; otherwise the default AWS credential chain applies.
func NewDownloader(ctx context.Context, cfg config.StorageConfig, log logrus.FieldLogger) (*Downloader, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newDownloader(client, log), nil
}

func newDownloader(client objectGetter, log logrus.FieldLogger) *Downloader {
	return &Downloader{client: client, log: logging.OrDiscard(log)}
}

// DownloadToTemp writes the object named by uri to a temporary file that
// keeps the key's extension. The caller must call cleanup when done.
func (d *Downloader) DownloadToTemp(ctx context.Context, uri string) (filePath string, cleanup func(), err error) {
	obj, err := ParseURI(uri)
	if err != nil {
		return "", nil, err
	}
	log := d.log.WithFields(logrus.Fields{"bucket": obj.Bucket, "key": obj.Key})

	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return "", nil, fmt.Errorf("%w: %s", ErrObjectNotFound, uri)
		}
		return "", nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > MaxObjectBytes {
		return "", nil, fmt.Errorf("%w: %d bytes", ErrObjectTooLarge, *out.ContentLength)
	}

	f, err := os.CreateTemp("", "cv-*"+path.Ext(obj.Key))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup = func() { _ = os.Remove(f.Name()) }

	n, err := io.Copy(f, io.LimitReader(out.Body, MaxObjectBytes+1))
	closeErr := f.Close()
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to read object body: %w", err)
	}
	if closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", closeErr)
	}
	if n > MaxObjectBytes {
		cleanup()
		return "", nil, fmt.Errorf("%w: more than %d bytes", ErrObjectTooLarge, MaxObjectBytes)
	}

	log.WithField("bytes", n).Info("downloaded résumé from object storage")
	return f.Name(), cleanup, nil
}
