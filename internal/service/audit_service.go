package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/rs/zerolog"
)

const (
	defaultAuditListLimit = 100
	auditQueueSize        = 256
	auditWriteTimeout     = 5 * time.Second
)

type auditJob struct {
	ctx   context.Context
	entry *domain.AuditLog
}

// AuditService writes request-level audit entries through a bounded queue
// drained by one goroutine. Entries are dropped with a warning when the queue
// is full.
type AuditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan auditJob
	done   chan struct{}
}

// NewAuditService starts the writer. A nil repo only logs entries.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) *AuditService {
	s := &AuditService{
		repo:  repo,
		log:   log,
		queue: make(chan auditJob, auditQueueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Log emits the entry to the log immediately and queues it for persistence.
// The request context's values are kept but its cancellation is not.
func (s *AuditService) Log(ctx context.Context, entry *domain.AuditLog) {
	s.log.Info().
		Str("action", string(entry.Action)).
		Str("actor_role", string(entry.ActorRole)).
		Str("actor_id", entry.ActorID).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Str("ip", entry.IPAddress).
		Msg("audit")

	if s.repo == nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.log.Warn().Str("action", string(entry.Action)).Msg("Audit entry after shutdown, not persisted")
		return
	}
	select {
	case s.queue <- auditJob{ctx: context.WithoutCancel(ctx), entry: entry}:
	default:
		s.log.Warn().Str("action", string(entry.Action)).Msg("Audit queue full, entry dropped")
	}
}

func (s *AuditService) run() {
	defer close(s.done)
	for job := range s.queue {
		ctx, cancel := context.WithTimeout(job.ctx, auditWriteTimeout)
		if err := s.repo.Create(ctx, job.entry); err != nil {
			s.log.Warn().Err(err).Str("action", string(job.entry.Action)).Msg("Failed to persist audit log")
		}
		cancel()
	}
}

// Close stops accepting entries and waits for queued ones to be written, or
// for ctx to end.
func (s *AuditService) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns the newest entries first.
func (s *AuditService) List(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if s.repo == nil {
		return []domain.AuditLog{}, nil
	}
	if limit <= 0 || limit > 1000 {
		limit = defaultAuditListLimit
	}
	logs, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, storeErr("list audit logs", err)
	}
	return logs, nil
}

// recordAudit appends an entry inside the caller's unit of work so it commits
// or rolls back with the mutation it describes.
func recordAudit(ctx context.Context, tx ports.Store, actor domain.Actor, action domain.AuditAction, resourceType, resourceID string, details map[string]string) error {
	var raw string
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			return err
		}
		raw = string(b)
	}
	entry := domain.NewAuditLog(actor, action, resourceType, resourceID, raw, nowUTC())
	if err := tx.Audit().Create(ctx, entry); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}
