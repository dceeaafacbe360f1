package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/repository"
)

// AuditRetentionWorker periodically deletes audit records older than the
// retention window.
type AuditRetentionWorker struct {
	store           *repository.Store
	retentionDays   int
	cleanupInterval time.Duration
	logger          zerolog.Logger
	now             func() time.Time
}

func NewAuditRetentionWorker(store *repository.Store, retentionDays int, cleanupInterval time.Duration, logger zerolog.Logger) *AuditRetentionWorker {
	if cleanupInterval <= 0 {
		cleanupInterval = 24 * time.Hour
	}
	return &AuditRetentionWorker{
		store:           store,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
		logger:          logger.With().Str("component", "audit-retention").Logger(),
		now:             time.Now,
	}
}

// Enabled reports whether a retention window is configured.
func (w *AuditRetentionWorker) Enabled() bool {
	return w.retentionDays > 0
}

// Start runs a cleanup immediately and then on every tick until ctx is done.
func (w *AuditRetentionWorker) Start(ctx context.Context) {
	if !w.Enabled() {
		w.logger.Info().Msg("audit retention disabled")
		return
	}

	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		if _, err := w.Cleanup(ctx); err != nil {
			w.logger.Error().Err(err).Msg("audit cleanup failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Cleanup deletes audit logs, security events and user activities whose
// timestamp is before the cutoff and returns the number of removed records.
func (w *AuditRetentionWorker) Cleanup(ctx context.Context) (int64, error) {
	if !w.Enabled() {
		return 0, nil
	}
	cutoff := w.now().UTC().AddDate(0, 0, -w.retentionDays)
	filter := bson.M{"timestamp": bson.M{"$lt": cutoff}}

	steps := []struct {
		name  string
		purge func(context.Context, bson.M) (int64, error)
	}{
		{repository.CollAuditLogs, w.store.AuditLogs.DeleteMany},
		{repository.CollSecurityEvents, w.store.SecurityEvents.DeleteMany},
		{repository.CollUserActivities, w.store.UserActivities.DeleteMany},
	}

	var total int64
	for _, s := range steps {
		n, err := s.purge(ctx, filter)
		if err != nil {
			return total, fmt.Errorf("failed to clean up %s: %w", s.name, err)
		}
		total += n
		if n > 0 {
			w.logger.Info().
				Str("collection", s.name).
				Int64("deleted", n).
				Time("cutoff", cutoff).
				Msg("expired audit records removed")
		}
	}
	return total, nil
}
