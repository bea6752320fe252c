package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"ai-interview-be/internal/entity"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Entry is a cached follow-up for one answer fingerprint.
type Entry struct {
	Fingerprint string
	FollowUp    entity.FollowUp
	ExpiresAt   time.Time
}

// Fingerprint normalizes the answer (trimmed, lowercased, whitespace
// collapsed) and hashes it together with the domain.
func Fingerprint(answer string, domain entity.Domain) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(answer), " "))
	sum := sha256.Sum256([]byte(normalized + "|" + string(domain)))
	return hex.EncodeToString(sum[:])
}

// ResultCache is a global LRU with a per-entry TTL, whichever evicts first.
// It is safe for concurrent use.
type ResultCache struct {
	lru        *expirable.LRU[string, Entry]
	defaultTTL time.Duration
	now        func() time.Time
}

func NewResultCache(capacity int, defaultTTL time.Duration) *ResultCache {
	if capacity <= 0 {
		capacity = 2048
	}
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	return &ResultCache{
		lru:        expirable.NewLRU[string, Entry](capacity, nil, defaultTTL),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the live entry for fingerprint. Hit accounting belongs to the
// caller, which may still reject a hit for a given session.
func (c *ResultCache) Get(fingerprint string) (Entry, bool) {
	entry, ok := c.lru.Get(fingerprint)
	if ok && !c.now().Before(entry.ExpiresAt) {
		c.lru.Remove(fingerprint)
		return Entry{}, false
	}
	return entry, ok
}

// Put stores followUp under fingerprint. A ttl shorter than the cache-wide
// TTL is honoured per entry; longer ones are capped by the LRU's own expiry.
func (c *ResultCache) Put(fingerprint string, followUp entity.FollowUp, ttl time.Duration) {
	if ttl <= 0 || ttl > c.defaultTTL {
		ttl = c.defaultTTL
	}
	c.lru.Add(fingerprint, Entry{
		Fingerprint: fingerprint,
		FollowUp:    followUp,
		ExpiresAt:   c.now().Add(ttl),
	})
}
