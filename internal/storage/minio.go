package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// SnapshotStore keeps point-in-time copies of document content in object
// storage. The durable store only holds the latest content; snapshots are the
// edit history.
type SnapshotStore struct {
	client *minio.Client
	bucket string
}

// Snapshot describes one archived copy of a document's content.
type Snapshot struct {
	Key       string    `json:"key"`
	TakenAt   time.Time `json:"takenAt"`
	SizeBytes int64     `json:"sizeBytes"`
}

// NewSnapshotStore creates the MinIO client and ensures the bucket exists.
func NewSnapshotStore(cfg *MinIOConfig) (*SnapshotStore, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &SnapshotStore{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

func snapshotKey(documentID string, at time.Time) string {
	return fmt.Sprintf("snapshots/%s/%d.txt", documentID, at.UnixNano())
}

// UploadSnapshot archives one copy of the document's content under a
// timestamped key.
func (s *SnapshotStore) UploadSnapshot(ctx context.Context, documentID string, content []byte) error {
	key := snapshotKey(documentID, time.Now().UTC())
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	return err
}

// ListSnapshots returns the archived copies for one document, oldest first.
func (s *SnapshotStore) ListSnapshots(ctx context.Context, documentID string) ([]Snapshot, error) {
	prefix := "snapshots/" + documentID + "/"
	out := []Snapshot{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, Snapshot{Key: obj.Key, TakenAt: obj.LastModified, SizeBytes: obj.Size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// DownloadSnapshot returns a ReadCloser for the archived object. The key must
// belong to the given document.
func (s *SnapshotStore) DownloadSnapshot(ctx context.Context, documentID, key string) (io.ReadCloser, error) {
	if !strings.HasPrefix(key, "snapshots/"+documentID+"/") {
		return nil, fmt.Errorf("key %q does not belong to document %s", key, documentID)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// perform a stat to ensure object exists
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// GetPresignedURL returns a presigned GET URL valid for the given duration.
func (s *SnapshotStore) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
