package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var ErrUnsupportedImage = errors.New("unsupported image")

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type S3Uploader struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3Uploader(ctx context.Context, region, bucket, publicURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for S3: %w", err)
	}
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Uploader{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}
	return u.publicURL + "/" + key, nil
}

// DiskUploader keeps objects under a local directory served at <baseURL>/uploads/.
type DiskUploader struct {
	dir     string
	baseURL string
}

func NewDiskUploader(dir, baseURL string) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskUploader{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (u *DiskUploader) Dir() string { return u.dir }

func (u *DiskUploader) Upload(_ context.Context, key, _ string, data []byte) (string, error) {
	clean := path.Clean("/" + key)
	dst := filepath.Join(u.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return u.baseURL + "/uploads" + clean, nil
}

// DecodeDataURI splits "data:<mime>;base64,<data>" into its content type and bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	meta, data, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("invalid base64 image: %w", ErrUnsupportedImage)
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}
	return contentType, raw, nil
}

// ImageExtension returns the file extension for an image content type.
func ImageExtension(contentType string) (string, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedImage
	}
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	case "image/heic":
		return ".heic", nil
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0], nil
	}
	return "." + strings.TrimPrefix(contentType, "image/"), nil
}
