package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"brainquest/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrInvalidImage = errors.New("image must be a base64 data URI or an http(s) URL")

const keyPrefix = "puzzles/"

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store keeps puzzle images in an S3 bucket.
type Store struct {
	api     objectAPI
	bucket  string
	baseURL string
}

// NewS3Store builds a store from the default AWS credential chain. baseURL
// overrides the public object URL prefix (a CDN, for instance).
func NewS3Store(ctx context.Context, region, bucket, baseURL string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &Store{api: s3.NewFromConfig(cfg), bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload stores a data URI image and returns its public reference. Plain
// http(s) URLs are referenced as they are and own no stored object.
func (s *Store) Upload(ctx context.Context, image string) (models.Image, error) {
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return models.Image{URL: image}, nil
	}
	contentType, data, err := decodeDataURI(image)
	if err != nil {
		return models.Image{}, err
	}

	key := keyPrefix + uuid.NewString() + extensionFor(contentType)
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return models.Image{}, fmt.Errorf("upload image: %w", err)
	}
	return models.Image{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

// Delete removes a stored image. An empty id is a no-op.
func (s *Store) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete image %s: %w", publicID, err)
	}
	return nil
}

func decodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrInvalidImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidImage
	}
	contentType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" || !strings.HasPrefix(contentType, "image/") {
		return "", nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, ErrInvalidImage
	}
	return contentType, data, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}
