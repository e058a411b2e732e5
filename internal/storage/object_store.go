package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"promoagent/internal/config"
	"promoagent/internal/hosting"
	"promoagent/internal/ids"
	"promoagent/internal/media/dataurl"
	"promoagent/internal/media/sniffer"
)

// objectClient is the part of *minio.Client the store uses.
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObjects(ctx context.Context, bucketName string, objectsCh <-chan minio.ObjectInfo, opts minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError
	EndpointURL() *url.URL
}

// ObjectStore hosts uploads in an S3-compatible bucket.
type ObjectStore struct {
	client objectClient
	cfg    config.StorageConfig
	now    func() time.Time
}

var _ hosting.Host = (*ObjectStore)(nil)

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

func (s *ObjectStore) Name() string {
	return config.HostingS3
}

func (s *ObjectStore) Upload(ctx context.Context, req hosting.Request) (string, error) {
	mediaType, data, err := dataurl.Decode(req.DataURL)
	if err != nil {
		return "", fmt.Errorf("decode upload: %w", err)
	}
	if mediaType == "" {
		mediaType = sniffer.MIMEUnknown
	}

	publicID := req.PublicID
	if publicID == "" {
		publicID = ids.New()
	}
	objectKey := buildObjectKey(s.now(), publicID, sniffer.Extension(mediaType))

	_, err = s.client.PutObject(ctx, s.cfg.Bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mediaType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return s.publicURL(objectKey), nil
}

// RemoveOlderThan deletes hosted uploads last modified before cutoff and
// reports how many were removed.
func (s *ObjectStore) RemoveOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	objects := make(chan minio.ObjectInfo)
	var (
		offered int
		listErr error
	)

	go func() {
		defer close(objects)
		for obj := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{Recursive: true}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			if obj.LastModified.Before(cutoff) {
				offered++
				objects <- obj
			}
		}
	}()

	// RemoveObjects only reports failures.
	failed := 0
	var removeErr error
	for result := range s.client.RemoveObjects(ctx, s.cfg.Bucket, objects, minio.RemoveObjectsOptions{}) {
		failed++
		if removeErr == nil {
			removeErr = fmt.Errorf("remove %s: %w", result.ObjectName, result.Err)
		}
	}

	removed := offered - failed
	if listErr != nil {
		return removed, fmt.Errorf("list objects: %w", listErr)
	}
	return removed, removeErr
}

func (s *ObjectStore) publicURL(objectKey string) string {
	return buildPublicURL(s.cfg.PublicBaseURL, s.cfg.Endpoint, s.cfg.Bucket, objectKey)
}

func buildObjectKey(now time.Time, publicID, ext string) string {
	datePrefix := now.UTC().Format("2006/01/02")
	return path.Join(datePrefix, fmt.Sprintf("%s.%s", publicID, ext))
}

func buildPublicURL(publicBase, endpoint, bucket, objectKey string) string {
	base := publicBase
	if base == "" {
		base = endpoint
	}
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, objectKey)
}
