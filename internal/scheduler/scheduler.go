package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inboxkit/domainverify/internal/config"
	"github.com/inboxkit/domainverify/internal/db"
	"github.com/inboxkit/domainverify/internal/dnscheck"
	"github.com/inboxkit/domainverify/internal/metrics"
)

// Store is the slice of the repository the re-check sweep needs.
type Store interface {
	ListVerifiedDomains(ctx context.Context) ([]*db.Domain, error)
	IncrementFailedChecks(ctx context.Context, id uuid.UUID) (int, error)
	ResetFailedChecks(ctx context.Context, id uuid.UUID) error
	SaveEvent(ctx context.Context, event *db.VerificationEvent) error
}

// Scheduler periodically re-checks the MX setup of verified domains. A
// failing re-check never clears the verified flag: it bumps a consecutive
// failure counter and raises an alert once the counter passes the
// threshold, so the operator is warned instead of silently losing mail.
type Scheduler struct {
	repo     Store
	verifier *dnscheck.Verifier
	metrics  *metrics.Collector
	logger   *zap.Logger
	config   config.SchedulerConfig
	wg       sync.WaitGroup
}

func NewScheduler(repo Store, verifier *dnscheck.Verifier, collector *metrics.Collector, logger *zap.Logger, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		repo:     repo,
		verifier: verifier,
		metrics:  collector,
		logger:   logger,
		config:   cfg,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting re-check scheduler",
		zap.Duration("interval", s.config.Interval),
		zap.Int("worker_count", s.config.WorkerCount),
	)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping re-check scheduler")
			s.wg.Wait()
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	domains, err := s.repo.ListVerifiedDomains(ctx)
	if err != nil {
		s.logger.Error("Failed to list verified domains", zap.Error(err))
		return
	}

	s.logger.Info("Re-checking verified domains", zap.Int("count", len(domains)))

	jobs := make(chan *db.Domain)

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go func(workerID int) {
			defer s.wg.Done()
			logger := s.logger.With(zap.Int("worker_id", workerID))
			for domain := range jobs {
				s.recheckDomain(ctx, domain, logger)
			}
		}(i)
	}

dispatch:
	for _, domain := range domains {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- domain:
		}
	}
	close(jobs)
	s.wg.Wait()
}

func (s *Scheduler) recheckDomain(ctx context.Context, domain *db.Domain, logger *zap.Logger) {
	result, err := s.verifier.Verify(ctx, domain, dnscheck.CategoryMX)
	if err != nil {
		logger.Error("Re-check failed to run",
			zap.Error(err),
			zap.String("domain", domain.Name),
		)
		return
	}

	if result.OK {
		if err := s.repo.ResetFailedChecks(ctx, domain.ID); err != nil {
			logger.Error("Failed to reset failure counter", zap.Error(err))
		}
		return
	}

	count, err := s.repo.IncrementFailedChecks(ctx, domain.ID)
	if err != nil {
		logger.Error("Failed to bump failure counter",
			zap.Error(err),
			zap.String("domain", domain.Name),
		)
		return
	}

	logger.Warn("Verified domain failed MX re-check",
		zap.String("domain", domain.Name),
		zap.Int("consecutive_failures", count),
		zap.Strings("errors", result.Errors),
	)

	if count > s.config.AlertThreshold {
		s.raiseAlert(ctx, domain, logger)
	}
}

// raiseAlert records an alert event and resets the counter so the operator
// is not re-alerted on every subsequent sweep.
func (s *Scheduler) raiseAlert(ctx context.Context, domain *db.Domain, logger *zap.Logger) {
	logger.Error("Domain MX setup broken across consecutive re-checks, alerting operator",
		zap.String("domain", domain.Name),
	)

	event := &db.VerificationEvent{
		ID:        uuid.New(),
		DomainID:  domain.ID,
		Category:  string(dnscheck.CategoryMX),
		OK:        false,
		Regressed: true,
		Detail:    "repeated re-check failures, operator alerted",
		CheckedAt: time.Now(),
	}
	if err := s.repo.SaveEvent(ctx, event); err != nil {
		logger.Error("Failed to record alert event", zap.Error(err))
	}

	if err := s.repo.ResetFailedChecks(ctx, domain.ID); err != nil {
		logger.Error("Failed to reset failure counter after alert", zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordRecheckAlert()
	}
}
