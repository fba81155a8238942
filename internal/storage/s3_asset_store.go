package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"mailstudio/builder/internal/config"
)

// S3AssetStore implements IAssetStore on an S3 bucket. It is selected when
// AWS_S3_BUCKET is configured; references are absolute URLs built from
// IMAGE_BASE_S3_URL so they can be embedded in rendered templates directly.
type S3AssetStore struct {
	cfg      *config.Config
	s3Client *s3.Client
	baseURL  string
}

// NewS3AssetStore creates a new S3-backed asset store.
func NewS3AssetStore(cfg *config.Config) (*S3AssetStore, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		// Use static credentials from config for simplicity
		// For production, prefer IAM roles or other secure credential methods
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3AssetStore{
		cfg:      cfg,
		s3Client: s3.NewFromConfig(awsCfg),
		baseURL:  strings.TrimRight(cfg.ImageBaseS3URL, "/"),
	}, nil
}

// Store uploads the payload under a unique object key and returns its public URL.
func (s *S3AssetStore) Store(ctx context.Context, data []byte, originalName string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}

	objectKey := fmt.Sprintf("uploads/%s_%s", uuid.NewString(), SanitizeFilename(originalName))
	contentType := http.DetectContentType(data)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s to S3: %w", objectKey, err)
	}

	return s.baseURL + "/" + objectKey, nil
}

// Read downloads the content of a previously stored asset.
func (s *S3AssetStore) Read(ctx context.Context, ref string) ([]byte, error) {
	objectKey, err := s.resolveRef(ref)
	if err != nil {
		return nil, err
	}

	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download object %s from S3: %w", objectKey, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body for %s: %w", objectKey, err)
	}
	return data, nil
}

// Replace overwrites an existing object, keeping its key (and URL) stable.
func (s *S3AssetStore) Replace(ctx context.Context, ref string, data []byte, contentType string) error {
	if len(data) == 0 {
		return ErrEmptyPayload
	}

	objectKey, err := s.resolveRef(ref)
	if err != nil {
		return err
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to overwrite object %s in S3: %w", objectKey, err)
	}
	return nil
}

func (s *S3AssetStore) resolveRef(ref string) (string, error) {
	if !strings.HasPrefix(ref, s.baseURL+"/") {
		return "", fmt.Errorf("%w: %s", ErrInvalidReference, ref)
	}
	return strings.TrimPrefix(ref, s.baseURL+"/"), nil
}
