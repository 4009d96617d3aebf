// Package profile holds a static, in-process ProfileProvider. Real
// deployments back this interface with their user store; the static provider
// covers local development and tests.
package profile

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// User is the static provider's record for one user.
type User struct {
	Email              string
	Segments           []string
	Fields             map[string]any
	SubscriptionStatus string
}

type Static struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewStatic() *Static {
	return &Static{users: make(map[string]*User)}
}

// Put registers or replaces a user record.
func (p *Static) Put(userID string, u User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[userID] = &u
}

func (p *Static) GetUserSegments(ctx context.Context, userID string) (map[string]struct{}, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set := map[string]struct{}{"all_users": {}}
	if u, ok := p.users[userID]; ok {
		for _, s := range u.Segments {
			set[s] = struct{}{}
		}
	}
	return set, nil
}

func (p *Static) GetProfileField(ctx context.Context, userID string, field string) (any, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, ok := p.users[userID]
	if !ok {
		return nil, fmt.Errorf("unknown user: %s", userID)
	}
	v, ok := u.Fields[field]
	if !ok {
		return nil, fmt.Errorf("user %s has no field %s", userID, field)
	}
	return v, nil
}

func (p *Static) GetSubscriptionStatus(ctx context.Context, userID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if u, ok := p.users[userID]; ok && u.SubscriptionStatus != "" {
		return u.SubscriptionStatus, nil
	}
	return "free", nil
}

func (p *Static) GetEmail(ctx context.Context, userID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if u, ok := p.users[userID]; ok && u.Email != "" {
		return u.Email, nil
	}
	// Development fallback so unregistered users still get a routable-looking
	// address in logs.
	if strings.Contains(userID, "@") {
		return userID, nil
	}
	return userID + "@example.invalid", nil
}
