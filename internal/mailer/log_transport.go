// Package mailer holds the in-process transport implementations. Production
// deployments inject their own engine.Transport over a real email provider.
package mailer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dripware/dripflow/internal/engine"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// LogTransport writes every message to the log instead of delivering it. It
// keeps the idempotency contract: a repeated key reports Duplicate.
type LogTransport struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewLogTransport() *LogTransport {
	return &LogTransport{seen: make(map[string]struct{})}
}

func (t *LogTransport) Send(ctx context.Context, msg *domain.QueuedMessage) engine.SendResult {
	t.mu.Lock()
	_, dup := t.seen[msg.IdempotencyKey]
	if !dup {
		t.seen[msg.IdempotencyKey] = struct{}{}
	}
	t.mu.Unlock()

	if dup {
		slog.Info("Suppressed duplicate send", "idempotency_key", msg.IdempotencyKey, "to", msg.Recipient)
		return engine.SendResult{Success: true, Duplicate: true}
	}
	slog.Info("Outbound message", "to", msg.Recipient, "subject", msg.Subject,
		"workflow_id", msg.WorkflowID, "step", msg.StepNumber, "idempotency_key", msg.IdempotencyKey)
	return engine.SendResult{Success: true}
}
