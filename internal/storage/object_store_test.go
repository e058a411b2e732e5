package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promoagent/internal/config"
	"promoagent/internal/hosting"
	"promoagent/internal/media/dataurl"
)

func TestBuildObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("PST", -8*3600))
	assert.Equal(t, "2026/03/10/abc.pdf", buildObjectKey(now, "abc", "pdf"))
}

func TestBuildPublicURL(t *testing.T) {
	tests := []struct {
		name       string
		publicBase string
		endpoint   string
		want       string
	}{
		{"endpoint without scheme", "", "minio.local:9000", "https://minio.local:9000/uploads/k.pdf"},
		{"endpoint with scheme", "", "http://minio.local:9000/", "http://minio.local:9000/uploads/k.pdf"},
		{"public base wins", "https://cdn.example.com/", "minio.local:9000", "https://cdn.example.com/uploads/k.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildPublicURL(tt.publicBase, tt.endpoint, "uploads", "k.pdf"))
		})
	}
}

func TestNewObjectStoreParsesSchemeEndpoint(t *testing.T) {
	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:  "https://minio.local:9000",
		AccessKey: "a",
		SecretKey: "b",
		Bucket:    "uploads",
	})
	require.NoError(t, err)
	assert.Equal(t, config.HostingS3, store.Name())
	assert.Equal(t, "minio.local:9000", store.client.EndpointURL().Host)
	assert.Equal(t, "https", store.client.EndpointURL().Scheme)
}

type fakeBucket struct {
	objects []minio.ObjectInfo
	listErr error
	failing map[string]bool

	removed []string
	puts    map[string]minio.PutObjectOptions
	bodies  map[string][]byte
}

func (f *fakeBucket) BucketExists(context.Context, string) (bool, error) { return true, nil }

func (f *fakeBucket) MakeBucket(context.Context, string, minio.MakeBucketOptions) error { return nil }

func (f *fakeBucket) PutObject(_ context.Context, _, objectName string, reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if f.puts == nil {
		f.puts = map[string]minio.PutObjectOptions{}
		f.bodies = map[string][]byte{}
	}
	f.puts[objectName] = opts
	f.bodies[objectName] = data
	return minio.UploadInfo{Key: objectName, Size: int64(len(data))}, nil
}

func (f *fakeBucket) ListObjects(context.Context, string, minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	out := make(chan minio.ObjectInfo)
	go func() {
		defer close(out)
		for _, obj := range f.objects {
			out <- obj
		}
		if f.listErr != nil {
			out <- minio.ObjectInfo{Err: f.listErr}
		}
	}()
	return out
}

// RemoveObjects drains objectsCh before closing the result channel, like minio.
func (f *fakeBucket) RemoveObjects(_ context.Context, _ string, objectsCh <-chan minio.ObjectInfo, _ minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError {
	out := make(chan minio.RemoveObjectError)
	go func() {
		defer close(out)
		for obj := range objectsCh {
			if f.failing[obj.Key] {
				out <- minio.RemoveObjectError{ObjectName: obj.Key, Err: errors.New("access denied")}
				continue
			}
			f.removed = append(f.removed, obj.Key)
		}
	}()
	return out
}

func (f *fakeBucket) EndpointURL() *url.URL {
	return &url.URL{Scheme: "http", Host: "minio.local:9000"}
}

func newTestStore(bucket *fakeBucket) *ObjectStore {
	return &ObjectStore{
		client: bucket,
		cfg:    config.StorageConfig{Bucket: "uploads", Endpoint: "http://minio.local:9000"},
		now:    func() time.Time { return time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC) },
	}
}

func TestRemoveOlderThanCountsRemovals(t *testing.T) {
	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	bucket := &fakeBucket{
		objects: []minio.ObjectInfo{
			{Key: "2024/04/01/a.pdf", LastModified: cutoff.Add(-30 * 24 * time.Hour)},
			{Key: "2024/04/30/b.pdf", LastModified: cutoff.Add(-time.Hour)},
			{Key: "2024/05/01/c.pdf", LastModified: cutoff.Add(time.Hour)},
		},
	}

	removed, err := newTestStore(bucket).RemoveOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.ElementsMatch(t, []string{"2024/04/01/a.pdf", "2024/04/30/b.pdf"}, bucket.removed)
}

func TestRemoveOlderThanSubtractsFailures(t *testing.T) {
	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	bucket := &fakeBucket{
		objects: []minio.ObjectInfo{
			{Key: "a.pdf", LastModified: cutoff.Add(-time.Hour)},
			{Key: "b.pdf", LastModified: cutoff.Add(-time.Hour)},
			{Key: "c.pdf", LastModified: cutoff.Add(-time.Hour)},
		},
		failing: map[string]bool{"b.pdf": true},
	}

	removed, err := newTestStore(bucket).RemoveOlderThan(context.Background(), cutoff)
	assert.Equal(t, 2, removed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remove b.pdf")
}

func TestRemoveOlderThanReportsListError(t *testing.T) {
	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	bucket := &fakeBucket{
		objects: []minio.ObjectInfo{{Key: "a.pdf", LastModified: cutoff.Add(-time.Hour)}},
		listErr: errors.New("connection reset"),
	}

	removed, err := newTestStore(bucket).RemoveOlderThan(context.Background(), cutoff)
	assert.Equal(t, 1, removed)
	assert.ErrorContains(t, err, "list objects")
}

func TestUploadStoresDecodedBytes(t *testing.T) {
	bucket := &fakeBucket{}
	store := newTestStore(bucket)

	hosted, err := store.Upload(context.Background(), hosting.Request{
		DataURL:  dataurl.Encode("application/pdf", []byte("%PDF-1.7")),
		PublicID: "abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://minio.local:9000/uploads/2024/05/02/abc.pdf", hosted)
	assert.Equal(t, "application/pdf", bucket.puts["2024/05/02/abc.pdf"].ContentType)
	assert.Equal(t, []byte("%PDF-1.7"), bucket.bodies["2024/05/02/abc.pdf"])
}
