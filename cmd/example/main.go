package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// getenv returns the value of the environment variable named by key or
// fallback if the variable is not present.
func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

const (
	ObjectName    = "example.txt"
	ObjectContent = "Hello from the cask example!\n"
)

// UploadFile uploads an object to the specified bucket.
func UploadFile(ctx context.Context, client *minio.Client, bucketName string, objectName string, objectContent []byte) error {
	reader := bytes.NewReader(objectContent)
	_, err := client.PutObject(ctx, bucketName, objectName, reader, int64(len(objectContent)), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %q to bucket %q: %w", objectName, bucketName, err)
	}

	slog.Info("Uploaded object to bucket", "object", objectName, "bucket", bucketName)
	return nil
}

// StatFile reports the metadata the server holds for an object.
func StatFile(ctx context.Context, client *minio.Client, bucketName string, objectName string) error {
	info, err := client.StatObject(ctx, bucketName, objectName, minio.StatObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to stat object %q in bucket %q: %w", objectName, bucketName, err)
	}

	slog.Info("Object metadata", "object", objectName, "size", info.Size, "etag", info.ETag)
	return nil
}

// DownloadFile downloads an object from the specified bucket to a local file.
func DownloadFile(ctx context.Context, client *minio.Client, bucketName string, objectName string, downloadPath string) error {
	if err := client.FGetObject(ctx, bucketName, objectName, downloadPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("failed to download object %q from bucket %q: %w", objectName, bucketName, err)
	}

	slog.Info("Downloaded object", "path", downloadPath)
	return nil
}

// RemoveFile deletes an object from the specified bucket.
func RemoveFile(ctx context.Context, client *minio.Client, bucketName string, objectName string) error {
	if err := client.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %q from bucket %q: %w", objectName, bucketName, err)
	}

	slog.Info("Removed object", "object", objectName, "bucket", bucketName)
	return nil
}

// Run walks an object through its lifecycle against the gateway. The server
// exposes a single bucket rooted at its storage directory, so the bucket
// segment of each path-style request maps onto a directory under that root.
func Run(ctx context.Context, client *minio.Client, bucket string) error {

	if err := UploadFile(ctx, client, bucket, ObjectName, []byte(ObjectContent)); err != nil {
		return err
	}

	if err := StatFile(ctx, client, bucket, ObjectName); err != nil {
		return err
	}

	downloadPath := filepath.Join(".", "downloaded_"+ObjectName)
	if err := DownloadFile(ctx, client, bucket, ObjectName, downloadPath); err != nil {
		return err
	}

	if err := RemoveFile(ctx, client, bucket, ObjectName); err != nil {
		return err
	}

	return nil
}

func main() {
	endpoint := getenv("CASK_ENDPOINT", "localhost:9000")
	accessKey := getenv("ACCESS_KEY", "mykey")
	secretKey := getenv("SECRET_KEY", "mysecret")
	bucket := getenv("BUCKET", "simple-bucket")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       false,
		BucketLookup: minio.BucketLookupPath,
	})

	if err != nil {
		slog.Error("failed to create client", "err", err)
		os.Exit(1)
	}

	if err := Run(context.Background(), client, bucket); err != nil {
		slog.Error("error running example", "err", err)
		os.Exit(1)
	}
}
