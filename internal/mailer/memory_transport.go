package mailer

import (
	"context"
	"sync"

	"github.com/dripware/dripflow/internal/engine"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// MemoryTransport collects messages for assertions in tests. FailWith, when
// set, makes every send fail with that error string until cleared.
type MemoryTransport struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	Sent     []*domain.QueuedMessage
	FailWith string
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{seen: make(map[string]struct{})}
}

func (t *MemoryTransport) Send(ctx context.Context, msg *domain.QueuedMessage) engine.SendResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.FailWith != "" {
		return engine.SendResult{Error: t.FailWith}
	}
	if _, dup := t.seen[msg.IdempotencyKey]; dup {
		return engine.SendResult{Success: true, Duplicate: true}
	}
	t.seen[msg.IdempotencyKey] = struct{}{}
	t.Sent = append(t.Sent, msg)
	return engine.SendResult{Success: true}
}

// SentCount returns how many unique messages were delivered.
func (t *MemoryTransport) SentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Sent)
}
