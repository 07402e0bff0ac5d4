package models

import (
	"encoding/json"
	"time"
)

// CacheEntry is a cached value with its own time to live.
type CacheEntry struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     json.RawMessage `json:"value"`
	TTL       time.Duration   `json:"ttl"`
}

// Valid reports whether the entry is still fresh at now.
func (e *CacheEntry) Valid(now time.Time) bool {
	return now.Sub(e.Timestamp) < e.TTL
}
