package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-mealgen/backend/config"
)

// ObjectUploader is the part of *s3.Client the relocator needs
type ObjectUploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// S3Relocator downloads generated images and stores them in an S3 bucket.
type S3Relocator struct {
	uploader ObjectUploader
	http     *retryablehttp.Client
	cfg      config.StorageConfig
	logger   *zap.Logger
}

// NewS3Relocator creates a relocator writing below cfg.Prefix in cfg.Bucket.
// Downloads are retried cfg.DownloadRetries times on connection errors and 5xx.
func NewS3Relocator(uploader ObjectUploader, cfg config.StorageConfig, logger *zap.Logger) *S3Relocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.DownloadRetries
	client.RetryWaitMin = 50 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond
	client.HTTPClient.Timeout = cfg.DownloadTimeout
	client.Logger = retryLogger{logger.Sugar().Named("image-download")}

	return &S3Relocator{
		uploader: uploader,
		http:     client,
		cfg:      cfg,
		logger:   logger,
	}
}

// Relocate copies the image at sourceURL into the bucket and returns its public URL.
func (r *S3Relocator) Relocate(ctx context.Context, sourceURL string) (string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &RelocationError{SourceURL: sourceURL, Err: fmt.Errorf("invalid source URL")}
	}

	data, contentType, err := r.download(ctx, sourceURL)
	if err != nil {
		return "", &RelocationError{SourceURL: sourceURL, Err: err}
	}

	key := r.objectKey(contentType)
	_, err = r.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", &RelocationError{SourceURL: sourceURL, Err: fmt.Errorf("failed to upload to S3: %w", err)}
	}

	publicURL := r.publicURL(key)
	r.logger.Info("relocated generated image",
		zap.String("bucket", r.cfg.Bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return publicURL, nil
}

func (r *S3Relocator) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("failed to download image, status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.cfg.MaxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > r.cfg.MaxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", r.cfg.MaxImageBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image is empty")
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		contentType = mediaType(http.DetectContentType(data))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("unexpected content type %q", contentType)
	}
	return data, contentType, nil
}

func (r *S3Relocator) objectKey(contentType string) string {
	ext, ok := imageExtensions[contentType]
	if !ok {
		ext = ".png"
	}
	return fmt.Sprintf("%s/%s%s", strings.Trim(r.cfg.Prefix, "/"), uuid.New().String(), ext)
}

func (r *S3Relocator) publicURL(key string) string {
	if r.cfg.PublicBaseURL != "" {
		return strings.TrimRight(r.cfg.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", r.cfg.Bucket, key)
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mt
}

// retryLogger adapts zap to retryablehttp.LeveledLogger
type retryLogger struct {
	s *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
