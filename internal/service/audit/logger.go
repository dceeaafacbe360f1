package audit

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/backoffice-api/internal/model"
)

// Entry describes one administrative change.
type Entry struct {
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Details    string
}

// Logger writes administrative changes to the audit trail. A failed write is
// logged and never fails the change being recorded.
type Logger struct {
	service *Service
}

func NewLogger(service *Service) *Logger {
	return &Logger{service: service}
}

func (l *Logger) Log(ctx context.Context, e Entry) {
	if l == nil {
		return
	}
	err := l.service.CreateLog(ctx, &model.AuditLog{
		UserID:     e.UserID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Details:    e.Details,
	})
	if err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("action", e.Action).
			Str("resource", e.Resource).
			Msg("failed to write audit log")
	}
}
