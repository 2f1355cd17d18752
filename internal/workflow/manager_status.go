package workflow

import (
	"context"

	"tunescan/internal/queue"
	"tunescan/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Queue       queue.HealthSummary
	StageHealth []stage.Health
}

// Status reports queue counts and stage readiness.
func (m *Manager) Status(ctx context.Context) (StatusSummary, error) {
	health, err := m.store.Health(ctx)
	if err != nil {
		return StatusSummary{}, err
	}
	handlers := []stage.Handler{m.searchHandler(), m.downloadHandler()}
	summary := StatusSummary{Queue: health}
	for _, h := range handlers {
		summary.StageHealth = append(summary.StageHealth, h.HealthCheck(ctx))
	}
	return summary, nil
}
