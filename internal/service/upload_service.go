package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog"

	"promoagent/internal/events"
	"promoagent/internal/hosting"
	"promoagent/internal/ids"
	"promoagent/internal/media/dataurl"
	"promoagent/internal/media/sniffer"
)

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type UploadInput struct {
	File   multipart.File
	Header *multipart.FileHeader
}

type UploadResult struct {
	URL       string
	PublicID  string
	MediaType string
	SizeBytes int64
}

type UploadService struct {
	host   hosting.Host
	events EventPublisher
	log    zerolog.Logger
}

func NewUploadService(host hosting.Host, events EventPublisher, log zerolog.Logger) *UploadService {
	return &UploadService{
		host:   host,
		events: events,
		log:    log,
	}
}

// Upload reads the whole file, wraps it in a data URL and hands it to the
// media host. Every call produces a new hosted copy.
func (s *UploadService) Upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	if input.File == nil || input.Header == nil {
		return UploadResult{}, errors.New("invalid file payload")
	}

	data, err := io.ReadAll(input.File)
	if err != nil {
		return UploadResult{}, fmt.Errorf("read file: %w", err)
	}

	mediaType := sniffer.MimeTypeFromHTTP(http.Header(input.Header.Header))
	if mediaType == "" {
		mediaType = sniffer.MIMEOf(data)
	}

	publicID := ids.New()
	url, err := s.host.Upload(ctx, hosting.Request{
		DataURL:   dataurl.Encode(mediaType, data),
		MediaType: mediaType,
		Filename:  input.Header.Filename,
		PublicID:  publicID,
	})
	if err != nil {
		s.publish(ctx, events.Event{Type: events.TypeUpload, Status: events.StatusFailed, Provider: s.host.Name(), MediaType: mediaType})
		return UploadResult{}, fmt.Errorf("host upload: %w", err)
	}

	s.publish(ctx, events.Event{
		Type:      events.TypeUpload,
		Status:    events.StatusOK,
		Provider:  s.host.Name(),
		MediaType: mediaType,
		Bytes:     int64(len(data)),
	})

	return UploadResult{
		URL:       url,
		PublicID:  publicID,
		MediaType: mediaType,
		SizeBytes: int64(len(data)),
	}, nil
}

func (s *UploadService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("type", event.Type).Msg("publish event failed")
	}
}
