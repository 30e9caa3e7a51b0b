package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"platebook/platebook/config"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioStore struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

func NewMinioStore(opts config.S3) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating object storage client: %w", err)
	}

	store := &MinioStore{client: client, bucket: opts.Bucket, urlExpiry: opts.URLExpiry}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("error checking for bucket %v: %w", opts.Bucket, err)
	}
	if !exists {
		err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("error creating bucket %v: %w", opts.Bucket, err)
		}
	}

	return store, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("error uploading object %v: %w", key, err)
	}
	return nil
}

func (s *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("error reading object %v: %w", key, err)
	}
	return obj, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("error deleting object %v: %w", key, err)
	}
	return nil
}

func (s *MinioStore) DeletePrefix(ctx context.Context, prefix string) error {
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objects {
		if object.Err != nil {
			return fmt.Errorf("error listing objects under %v: %w", prefix, object.Err)
		}
		err := s.client.RemoveObject(ctx, s.bucket, object.Key, minio.RemoveObjectOptions{})
		if err != nil {
			return fmt.Errorf("error deleting object %v: %w", object.Key, err)
		}
	}

	return nil
}

func (s *MinioStore) PresignedURL(ctx context.Context, key string) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("error presigning url for %v: %w", key, err)
	}
	return presigned.String(), nil
}
