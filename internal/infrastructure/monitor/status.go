package monitor

import "time"

type Status struct {
	Store        bool      `json:"store"`
	Cache        bool      `json:"cache"`
	CacheEnabled bool      `json:"cache_enabled"`
	LastCheck    time.Time `json:"last_check"`
}

// Healthy reports whether every configured dependency answered.
func (s Status) Healthy() bool {
	return s.Store && (s.Cache || !s.CacheEnabled)
}
