package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"promoagent/internal/events"
	"promoagent/internal/models"
)

var ErrMissingGenerationInput = errors.New("pdf_url and user_query are required")

type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (models.GeneratedResult, error)
}

type GenerateService struct {
	generator Generator
	events    EventPublisher
	log       zerolog.Logger
}

func NewGenerateService(generator Generator, events EventPublisher, log zerolog.Logger) *GenerateService {
	return &GenerateService{
		generator: generator,
		events:    events,
		log:       log,
	}
}

func (s *GenerateService) Generate(ctx context.Context, req models.GenerationRequest) (models.GeneratedResult, error) {
	if !isHTTPURL(req.PDFURL) || req.UserQuery == "" {
		return models.GeneratedResult{}, ErrMissingGenerationInput
	}

	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.publish(ctx, events.StatusFailed)
		return models.GeneratedResult{}, fmt.Errorf("generate: %w", err)
	}

	s.publish(ctx, events.StatusOK)
	return result, nil
}

func (s *GenerateService) publish(ctx context.Context, status string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events.Event{Type: events.TypeGeneration, Status: status}); err != nil {
		s.log.Warn().Err(err).Msg("publish event failed")
	}
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
