package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps photos in an S3 compatible bucket. The bucket is expected
// to allow anonymous reads; URLs are not presigned.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewMinioStore connects to MinIO and ensures the bucket exists. publicURL
// overrides the default "<scheme>://<endpoint>/<bucket>" URL prefix.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool, publicURL string) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + endpoint + "/" + bucket
	}

	return &MinioStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}, nil
}

// Save uploads the photo and returns its public object URL.
func (m *MinioStore) Save(ctx context.Context, in Upload) (string, error) {
	key := ObjectName(in.Filename, m.now())

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := m.client.PutObject(ctx, m.bucket, key, in.Body, in.Size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return m.publicURL + "/" + key, nil
}

// Delete removes the object behind a URL returned by Save. S3 treats a
// missing key as success.
func (m *MinioStore) Delete(ctx context.Context, url string) error {
	key, err := objectFromURL(url)
	if err != nil {
		return err
	}

	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
