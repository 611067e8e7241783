package health

import (
	"context"
	"database/sql"
	"time"
)

// Service encapsulates health-related checks.
type Service struct {
	DB *sql.DB
}

// NewService constructs a new health service.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status reports overall health plus per-dependency detail. With no database
// configured the service is healthy on in-memory repositories.
func (s *Service) Status(ctx context.Context) map[string]any {
	status := map[string]any{"ok": true}

	if s.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.DB.PingContext(pingCtx); err != nil {
			status["ok"] = false
			status["database"] = "unreachable"
		} else {
			status["database"] = "ok"
		}
	} else {
		status["database"] = "memory"
	}

	return status
}
