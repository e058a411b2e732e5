package service

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promoagent/internal/events"
	"promoagent/internal/media/dataurl"
)

func TestUploadEncodesContentAsDataURL(t *testing.T) {
	data := make([]byte, 2<<20)
	rand.New(rand.NewSource(7)).Read(data)
	copy(data, "%PDF-1.7")

	host := &fakeHost{url: "https://res.cloudinary.com/demo/image/upload/sample.pdf"}
	pub := &fakePublisher{}
	svc := NewUploadService(host, pub, zerolog.Nop())

	result, err := svc.Upload(context.Background(), newUploadInput("sample.pdf", "application/pdf", data))
	require.NoError(t, err)

	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/sample.pdf", result.URL)
	assert.Equal(t, int64(len(data)), result.SizeBytes)
	require.Len(t, host.requests, 1)

	mediaType, decoded, err := dataurl.Decode(host.requests[0].DataURL)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mediaType)
	assert.True(t, bytes.Equal(data, decoded))
	assert.Equal(t, "sample.pdf", host.requests[0].Filename)
	assert.NotEmpty(t, host.requests[0].PublicID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeUpload, pub.events[0].Type)
	assert.Equal(t, events.StatusOK, pub.events[0].Status)
	assert.Equal(t, int64(len(data)), pub.events[0].Bytes)
}

func TestUploadSniffsMissingContentType(t *testing.T) {
	host := &fakeHost{url: "https://host/a"}
	svc := NewUploadService(host, nil, zerolog.Nop())

	_, err := svc.Upload(context.Background(), newUploadInput("a", "", []byte("%PDF-1.4 body")))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", host.requests[0].MediaType)

	_, err = svc.Upload(context.Background(), newUploadInput("b", "", []byte{0x01, 0x02}))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", host.requests[1].MediaType)
}

func TestUploadDoesNotFilterTypes(t *testing.T) {
	host := &fakeHost{url: "https://host/a.txt"}
	svc := NewUploadService(host, nil, zerolog.Nop())

	result, err := svc.Upload(context.Background(), newUploadInput("a.txt", "text/plain", []byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", result.MediaType)
}

func TestUploadHostFailure(t *testing.T) {
	host := &fakeHost{err: errUpstream}
	pub := &fakePublisher{}
	svc := NewUploadService(host, pub, zerolog.Nop())

	_, err := svc.Upload(context.Background(), newUploadInput("a.pdf", "application/pdf", []byte("%PDF")))
	assert.ErrorIs(t, err, errUpstream)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.StatusFailed, pub.events[0].Status)
}

func TestUploadIgnoresPublishFailure(t *testing.T) {
	host := &fakeHost{url: "https://host/a"}
	svc := NewUploadService(host, &fakePublisher{err: errUpstream}, zerolog.Nop())

	result, err := svc.Upload(context.Background(), newUploadInput("a.pdf", "application/pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, "https://host/a", result.URL)
}

func TestUploadEachCallCreatesNewCopy(t *testing.T) {
	host := &fakeHost{url: "https://host/a"}
	svc := NewUploadService(host, nil, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := svc.Upload(context.Background(), newUploadInput("a.pdf", "application/pdf", []byte("%PDF")))
		require.NoError(t, err)
	}
	require.Len(t, host.requests, 2)
	assert.NotEqual(t, host.requests[0].PublicID, host.requests[1].PublicID)
}

func TestUploadRejectsNilPayload(t *testing.T) {
	svc := NewUploadService(&fakeHost{}, nil, zerolog.Nop())
	_, err := svc.Upload(context.Background(), UploadInput{})
	assert.Error(t, err)
}
