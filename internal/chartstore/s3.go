package chartstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/magabrotheeeer/tradingpro/internal/config"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// S3Store хранит объекты в бакете S3 (или совместимом хранилище при заданном endpoint).
type S3Store struct {
	bucket   string
	client   *s3.S3
	uploader *s3manager.Uploader
}

// NewS3Store создаёт сессию AWS и бакет, если его ещё нет.
func NewS3Store(cfg config.ChartStorage) (*S3Store, error) {
	const op = "chartstore.NewS3Store"

	awsCfg := &aws.Config{
		Region: aws.String(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, "")
	}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create AWS session: %w", op, err)
	}

	client := s3.New(sess)
	if _, err = client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(cfg.S3Bucket)}); err != nil {
		if _, err = client.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(cfg.S3Bucket)}); err != nil {
			return nil, fmt.Errorf("%s: failed to create S3 bucket: %w", op, err)
		}
	}

	return &S3Store{
		bucket:   cfg.S3Bucket,
		client:   client,
		uploader: s3manager.NewUploader(sess),
	}, nil
}

// Put загружает объект в бакет.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	const op = "chartstore.S3Store.Put"
	if !validKey(key) {
		return fmt.Errorf("%s: invalid key %q", op, key)
	}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get скачивает объект из бакета.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	const op = "chartstore.S3Store.Get"
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, "", fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	contentType := ContentTypeByKey(key)
	if out.ContentType != nil && *out.ContentType != "" {
		contentType = *out.ContentType
	}
	return out.Body, contentType, nil
}

// Delete удаляет объект из бакета.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	const op = "chartstore.S3Store.Delete"
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
