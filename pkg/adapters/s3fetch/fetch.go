// Package s3fetch resolves s3:// source identifiers by downloading the object
// to a local temp file.
package s3fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Scheme is the identifier prefix handled by this package.
const Scheme = "s3://"

// ErrInvalidURI is returned for a malformed s3:// identifier.
var ErrInvalidURI = errors.New("s3fetch: invalid s3 uri")

// Config holds the S3 client configuration.
type Config struct {
	Region          string
	Endpoint        string // Optional: for S3-compatible endpoints (path-style)
	AccessKeyID     string // Optional: static credentials
	SecretAccessKey string
	TempDir         string // Download directory; empty uses os.TempDir
}

// GetObjectAPI is the part of the S3 client used here.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher downloads objects to temp files.
type Fetcher struct {
	client  GetObjectAPI
	tempDir string
}

// New creates a Fetcher from cfg using the default AWS credential chain
// unless static credentials are given.
func New(ctx context.Context, cfg Config) (*Fetcher, error) {
	var configOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		configOpts = append(configOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return NewWithClient(s3.NewFromConfig(awsCfg, clientOpts...), cfg.TempDir), nil
}

// NewWithClient creates a Fetcher around an existing client.
func NewWithClient(client GetObjectAPI, tempDir string) *Fetcher {
	return &Fetcher{client: client, tempDir: tempDir}
}

// IsURI reports whether id is an s3:// identifier.
func IsURI(id string) bool {
	return strings.HasPrefix(id, Scheme)
}

// ParseURI splits s3://bucket/key.
func ParseURI(uri string) (bucket, key string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, Scheme), "/")
	if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	return bucket, key, nil
}

// Fetch downloads uri and returns the local path and a cleanup func that
// removes it. The file keeps the key's extension so the format can be
// recognised.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (string, func(), error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return "", nil, err
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", nil, fmt.Errorf("get object %s: %w", uri, err)
	}
	defer out.Body.Close()

	tmp, err := os.CreateTemp(f.tempDir, "fsvideo-*"+path.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := io.Copy(tmp, out.Body); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("download %s: %w", uri, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	return name, cleanup, nil
}
