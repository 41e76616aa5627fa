// Package media stores entity images in S3-compatible object storage via
// MinIO. Object keys start with the owning user's id, so one user's media
// lives under its own prefix and account erasure is a prefix sweep.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("object not found")

// Store wraps a MinIO client bound to one bucket. The bucket is created
// lazily on first use, so the server can boot before object storage does.
type Store struct {
	client *minio.Client
	bucket string

	mu      sync.Mutex
	ensured bool
}

// New connects to the MinIO endpoint. The connection is not probed here;
// the first operation surfaces reachability problems.
func New(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		log.Printf("media: created bucket %s", s.bucket)
	}
	s.ensured = true
	return nil
}

// objectKey places every object under its owner's prefix. The label segment
// is whatever the caller validated; this package treats it as a path part.
func objectKey(userID, label, nodeID string) string {
	return fmt.Sprintf("%s/%s/%s", userID, label, nodeID)
}

// Put writes an object, replacing any previous content under the same key.
func (s *Store) Put(ctx context.Context, userID, label, nodeID, contentType string, size int64, r io.Reader) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(userID, label, nodeID), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Get opens an object for reading and reports its content type and size.
// The caller owns the returned reader.
func (s *Store) Get(ctx context.Context, userID, label, nodeID string) (io.ReadCloser, string, int64, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, "", 0, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(userID, label, nodeID), minio.GetObjectOptions{})
	if err != nil {
		return nil, "", 0, fmt.Errorf("get object: %w", err)
	}
	// GetObject is lazy; Stat is the first round trip and the spot where a
	// missing key shows up.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", 0, ErrNotFound
		}
		return nil, "", 0, fmt.Errorf("stat object: %w", err)
	}
	return obj, info.ContentType, info.Size, nil
}

// Remove deletes one object. Removing an absent key is not an error.
func (s *Store) Remove(ctx context.Context, userID, label, nodeID string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey(userID, label, nodeID), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// RemoveUser deletes everything under a user's prefix and reports how many
// objects went. Used by account erasure.
func (s *Store) RemoveUser(ctx context.Context, userID string) (int, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return 0, err
	}

	removed := 0
	var firstErr error
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    userID + "/",
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("list objects: %w", obj.Err)
			}
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove %s: %w", obj.Key, err)
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}
