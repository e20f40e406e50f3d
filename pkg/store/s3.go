package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// S3Store keeps each key as an object in an S3 bucket.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "eu-west-1", Credentials: creds})
//	st := store.NewS3Store(client, "my-bucket", "retain/")
type S3Store struct {
	client S3API
	bucket string
	prefix string
	closed atomic.Bool
}

// NewS3Store creates a store writing objects under prefix in bucket.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) objectKey(key string) *string {
	return aws.String(s.prefix + key)
}

// Save implements Store.
func (s *S3Store) Save(ctx context.Context, key string, data []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         s.objectKey(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.objectKey(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, nil
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Delete implements Store.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.objectKey(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

// Close implements Store. The client is owned by the caller.
func (s *S3Store) Close() error {
	s.closed.Store(true)
	return nil
}
