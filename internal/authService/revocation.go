package auth

import (
	"sync"
	"time"
)

// revocationList remembers logged-out session ids until their token would have expired anyway
type revocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time // session id -> token expiry
}

func newRevocationList() *revocationList {
	return &revocationList{revoked: make(map[string]time.Time)}
}

func (r *revocationList) revoke(sessionID string, expiresAt, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, id)
		}
	}
	r.revoked[sessionID] = expiresAt
}

func (r *revocationList) isRevoked(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.revoked[sessionID]
	return ok
}

func (r *revocationList) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.revoked)
}
