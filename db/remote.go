package db

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// RemoteOption configures access to s3:// locations.
type RemoteOption func(*remoteConfig)

// S3Credentials sets static credentials instead of the default AWS chain.
func S3Credentials(accessKey, secretKey string) RemoteOption {
	return func(c *remoteConfig) { c.accessKey, c.secretKey = accessKey, secretKey }
}

// S3Region sets the bucket region.
func S3Region(region string) RemoteOption {
	return func(c *remoteConfig) { c.region = region }
}

// S3Endpoint points at an S3-compatible service (MinIO and friends).
func S3Endpoint(endpoint string) RemoteOption {
	return func(c *remoteConfig) { c.endpoint = endpoint }
}

type remoteConfig struct {
	accessKey string
	secretKey string
	region    string
	endpoint  string
}

// Push writes a consistent snapshot of the database to dst: a local
// path, a file:// URL, or s3://bucket/key.
func (e *Engine) Push(ctx context.Context, dst string, opts ...RemoteOption) error {
	tmp := filepath.Join(os.TempDir(), "lildb-snapshot-"+uuid.NewString())
	defer os.Remove(tmp)

	if err := e.Snapshot(tmp); err != nil {
		return err
	}

	in, err := os.Open(tmp)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer in.Close()

	out, err := openRemoteWriter(ctx, dst, remoteOptions(opts))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("write snapshot to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("write snapshot to %s: %w", dst, err)
	}

	e.log.Logf("[INFO] pushed snapshot of %q to %s", e.path, dst)
	return nil
}

// Pull fetches a database file from src (a local path, file://, http://,
// https://, or s3:// URL) into localPath, ready to be opened.
func Pull(ctx context.Context, src, localPath string, opts ...RemoteOption) error {
	in, err := openRemoteReader(ctx, src, remoteOptions(opts))
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", localPath, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("fetch %s: %w", src, err)
	}
	return out.Close()
}

func remoteOptions(opts []RemoteOption) *remoteConfig {
	cfg := &remoteConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func openRemoteReader(ctx context.Context, path string, cfg *remoteConfig) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(path, "s3://"):
		return openS3Reader(ctx, path, cfg)
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return openHTTPReader(ctx, path)
	case strings.HasPrefix(path, "file://"):
		return os.Open(strings.TrimPrefix(path, "file://"))
	default:
		return os.Open(path)
	}
}

func openRemoteWriter(ctx context.Context, path string, cfg *remoteConfig) (io.WriteCloser, error) {
	switch {
	case strings.HasPrefix(path, "s3://"):
		return openS3Writer(ctx, path, cfg)
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return nil, fmt.Errorf("cannot push a snapshot to an http destination")
	case strings.HasPrefix(path, "file://"):
		return os.Create(strings.TrimPrefix(path, "file://"))
	default:
		return os.Create(path)
	}
}

func openHTTPReader(ctx context.Context, url string) (io.ReadCloser, error) {
	client := &http.Client{Timeout: 5 * time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

// s3API is the slice of the S3 client used here, swappable in tests.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var newS3Client = func(ctx context.Context, cfg *remoteConfig) (s3API, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.region))
	}
	if cfg.accessKey != "" && cfg.secretKey != "" {
		provider := credentials.NewStaticCredentialsProvider(cfg.accessKey, cfg.secretKey, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(provider))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.endpoint)
			o.UsePathStyle = true // S3-compatible services
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func parseS3URL(url string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(url, "s3://")
	bucket, key, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URL %q, want s3://bucket/key", url)
	}
	return bucket, key, nil
}

func openS3Reader(ctx context.Context, url string, cfg *remoteConfig) (io.ReadCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	return resp.Body, nil
}

// s3Writer buffers writes and uploads the object on Close.
type s3Writer struct {
	ctx    context.Context
	client s3API
	bucket string
	key    string
	buf    bytes.Buffer
	closed bool
}

func (w *s3Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("writer is closed")
	}
	return w.buf.Write(p)
}

func (w *s3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.key),
		Body:   bytes.NewReader(w.buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", w.bucket, w.key, err)
	}
	return nil
}

func openS3Writer(ctx context.Context, url string, cfg *remoteConfig) (io.WriteCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &s3Writer{ctx: ctx, client: client, bucket: bucket, key: key}, nil
}
