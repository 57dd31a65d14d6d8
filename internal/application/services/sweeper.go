package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"filedrop-api/internal/application/ports"
	domain "filedrop-api/internal/domain/link"
	"filedrop-api/internal/infrastructure/mq"
	linkdto "filedrop-api/internal/interface/api/rest/dto/link"
)

// Sweeper reclaims links nobody will ever successfully access again due to
// time expiry, independent of download traffic.
type Sweeper struct {
	registry domain.Registry
	blob     ports.BlobStore
	mq       ports.RabbitMQ
	logger   *zap.Logger
	mCounter *prometheus.CounterVec
	interval time.Duration
}

func NewSweeper(
	registry domain.Registry,
	blob ports.BlobStore,
	mq ports.RabbitMQ,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
	interval time.Duration,
) *Sweeper {
	return &Sweeper{
		registry: registry,
		blob:     blob,
		mq:       mq,
		logger:   logger,
		mCounter: mCounter,
		interval: interval,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("starting expiry sweeper", zap.Duration("interval", s.interval))

	defer func() {
		s.logger.Info("expiry sweeper gracefully stopped")
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx, time.Now())
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one scan-and-delete cycle and reports how many entries it
// reclaimed. A failure on one id never aborts the rest of the tick.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) int {
	var reclaimed int

	for _, id := range s.registry.ScanExpired(ctx, now) {
		// the access coordinator may have purged it between scan and remove
		entry, ok := s.registry.Remove(ctx, id)
		if !ok {
			continue
		}

		if err := s.blob.Delete(ctx, entry.BlobID); err != nil {
			s.logger.Warn("sweep blob delete failed", zap.String("link_id", id.String()), zap.Error(err))
		}

		s.mq.GetInputChan() <- mq.Event{
			Id:      uuid.New(),
			TS:      time.Now(),
			Action:  mq.ActionExpired,
			LinkID:  id.String(),
			Payload: linkdto.ToResponseLink(*entry),
		}

		s.mCounter.WithLabelValues("links_swept_total").Inc()
		reclaimed++
	}

	return reclaimed
}
