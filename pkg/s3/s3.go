package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Object Storage interface used to read dataset objects
type ObjectStorageClient interface {
	Connect(endpoint, accessKeyID, secretAccessKey, region string, useSSL bool) error
	GetObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error)
}

// ObjectStorage holds the object storage client instance
type ObjectStorage struct {
	Conn *minio.Client
}

// NewObjectStorage initialization
func NewObjectStorage() *ObjectStorage {
	return &ObjectStorage{}
}

// Connect creates the object storage client. Works with AWS S3 and any
// S3-compatible endpoint.
func (o *ObjectStorage) Connect(endpoint, accessKeyID, secretAccessKey, region string, useSSL bool) error {
	var err error
	o.Conn, err = minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client, %v", err)
	}

	return nil
}

// GetObject opens an object for streaming. The object is stat'ed first so a
// missing bucket, missing key or bad credentials surface here rather than on
// the first Read.
func (o *ObjectStorage) GetObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
	if o.Conn == nil {
		return nil, fmt.Errorf("object storage is not connected")
	}

	obj, err := o.Conn.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucketName, objectName, err)
	}

	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to stat object %s/%s: %w", bucketName, objectName, err)
	}

	return obj, nil
}
