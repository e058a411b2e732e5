package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"promoagent/internal/events"
)

// StatsRecorder increments a named counter.
type StatsRecorder interface {
	Incr(ctx context.Context, field string, by int64) error
}

// Cleaner removes hosted objects older than cutoff.
type Cleaner interface {
	RemoveOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type Processor struct {
	logger    zerolog.Logger
	stats     StatsRecorder
	cleaner   Cleaner
	retention time.Duration
	now       func() time.Time
}

type TaskPayload struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	Provider  string `json:"provider"`
	MediaType string `json:"mediaType"`
	Bytes     string `json:"bytes"`
}

// NewProcessor builds a processor. cleaner may be nil, in which case
// cleanup tasks are acknowledged and skipped.
func NewProcessor(logger zerolog.Logger, stats StatsRecorder, cleaner Cleaner, retention time.Duration) *Processor {
	return &Processor{
		logger:    logger,
		stats:     stats,
		cleaner:   cleaner,
		retention: retention,
		now:       time.Now,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case events.TypeUpload, events.TypeGeneration:
		return p.handleCounter(ctx, payload)
	case events.TypeCleanup:
		return p.handleCleanup(ctx)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

func (p *Processor) handleCounter(ctx context.Context, payload TaskPayload) error {
	status := payload.Status
	if status == "" {
		status = events.StatusOK
	}

	field := payload.Type + "s_" + status
	if err := p.stats.Incr(ctx, field, 1); err != nil {
		return fmt.Errorf("incr %s: %w", field, err)
	}

	if payload.Type == events.TypeUpload && status == events.StatusOK {
		if payload.Provider != "" {
			if err := p.stats.Incr(ctx, "uploads_"+payload.Provider, 1); err != nil {
				return fmt.Errorf("incr provider counter: %w", err)
			}
		}
		if n, err := strconv.ParseInt(payload.Bytes, 10, 64); err == nil && n > 0 {
			if err := p.stats.Incr(ctx, "upload_bytes", n); err != nil {
				return fmt.Errorf("incr upload_bytes: %w", err)
			}
		}
	}

	p.logger.Debug().Str("field", field).Str("media_type", payload.MediaType).Msg("counter recorded")
	return nil
}

func (p *Processor) handleCleanup(ctx context.Context) error {
	if p.cleaner == nil || p.retention <= 0 {
		p.logger.Info().Msg("cleanup skipped, retention not configured")
		return nil
	}

	cutoff := p.now().Add(-p.retention)
	removed, err := p.cleaner.RemoveOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("remove expired objects: %w", err)
	}

	if removed > 0 {
		if err := p.stats.Incr(ctx, "cleanup_removed", int64(removed)); err != nil {
			return fmt.Errorf("incr cleanup_removed: %w", err)
		}
	}

	p.logger.Info().Int("removed", removed).Time("cutoff", cutoff).Msg("cleanup finished")
	return nil
}
