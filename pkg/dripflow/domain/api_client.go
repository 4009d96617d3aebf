package domain

import "time"

// ApiClient authenticates callers of the HTTP API. KeyHash is a bcrypt hash,
// the raw key is only seen when the client is provisioned.
type ApiClient struct {
	ID      int64
	Name    string
	KeyHash string
	Enabled bool
	Created time.Time
}
