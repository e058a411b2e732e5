package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"sync"

	"promoagent/internal/events"
	"promoagent/internal/hosting"
	"promoagent/internal/models"
)

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func newUploadInput(name, contentType string, data []byte) UploadInput {
	header := textproto.MIMEHeader{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return UploadInput{
		File:   memFile{bytes.NewReader(data)},
		Header: &multipart.FileHeader{Filename: name, Header: header, Size: int64(len(data))},
	}
}

type fakeHost struct {
	url      string
	err      error
	requests []hosting.Request
}

func (h *fakeHost) Name() string { return "fake" }

func (h *fakeHost) Upload(_ context.Context, req hosting.Request) (string, error) {
	h.requests = append(h.requests, req)
	return h.url, h.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type fakeGenerator struct {
	result models.GeneratedResult
	err    error
	calls  []models.GenerationRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req models.GenerationRequest) (models.GeneratedResult, error) {
	g.calls = append(g.calls, req)
	return g.result, g.err
}

var errUpstream = errors.New("upstream down")
