package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// ErrInvalidImage is returned for malformed data URIs.
var ErrInvalidImage = errors.New("invalid base64 image")

// ImageStore uploads item and recipe pictures.
type ImageStore interface {
	UploadDataURI(ctx context.Context, dataURI, prefix string) (string, error)
}

// S3ImageStore puts images in a bucket and returns their CDN URL.
type S3ImageStore struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3ImageStore(ctx context.Context, region, bucket, baseURL string) (*S3ImageStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for S3: %w", err)
	}
	return &S3ImageStore{client: s3.NewFromConfig(cfg), bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// DecodeDataURI splits "data:<mime>;base64,<data>" into content type,
// file extension and bytes.
func DecodeDataURI(dataURI string) (contentType, ext string, data []byte, err error) {
	meta, payload, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return "", "", nil, ErrInvalidImage
	}
	contentType = strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	if !strings.HasPrefix(contentType, "image/") {
		return "", "", nil, ErrInvalidImage
	}

	switch contentType {
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	default:
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		} else if _, sub, ok := strings.Cut(contentType, "/"); ok {
			ext = "." + sub
		}
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return contentType, ext, data, nil
}

func (s *S3ImageStore) UploadDataURI(ctx context.Context, dataURI, prefix string) (string, error) {
	contentType, ext, data, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.NewString(), ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}
