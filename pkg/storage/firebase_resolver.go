package storage

import (
	"context"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
)

const (
	downloadURLTTL = 24 * time.Hour
	uploadURLTTL   = 15 * time.Minute
)

// FirebaseResolver resolves storage handles against the app's default
// Firebase Storage bucket using signed URLs.
type FirebaseResolver struct {
	bucket *gcs.BucketHandle
}

// NewFirebaseResolver creates a resolver backed by the given bucket. An
// empty bucketName selects the app's default bucket.
func NewFirebaseResolver(ctx context.Context, app *firebase.App, bucketName string) (*FirebaseResolver, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase storage client: %w", err)
	}

	var bucket *gcs.BucketHandle
	if bucketName != "" {
		bucket, err = client.Bucket(bucketName)
	} else {
		bucket, err = client.DefaultBucket()
	}
	if err != nil {
		return nil, fmt.Errorf("error getting storage bucket: %w", err)
	}

	return &FirebaseResolver{bucket: bucket}, nil
}

// ResolveURL mints a time-limited download URL for a storage handle.
func (r *FirebaseResolver) ResolveURL(ctx context.Context, handle string) (string, error) {
	url, err := r.bucket.SignedURL(handle, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(downloadURLTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign download URL for %s: %w", handle, err)
	}
	return url, nil
}

// GenerateUploadURL mints a one-time PUT target under a fresh handle.
func (r *FirebaseResolver) GenerateUploadURL(ctx context.Context) (*UploadTarget, error) {
	handle := "uploads/" + uuid.NewString()
	url, err := r.bucket.SignedURL(handle, &gcs.SignedURLOptions{
		Method:  "PUT",
		Expires: time.Now().Add(uploadURLTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload URL: %w", err)
	}
	return &UploadTarget{UploadURL: url, Handle: handle}, nil
}
