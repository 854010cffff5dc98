package redisx

import "time"

const (
	// Persisted session values: session:{session_id}:{key} (key = token | isAuthenticated)
	KeySession = "session:%s:%s"

	// Last alerted stock status: dedup:{service}:{product_id} = status
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLSession = 30 * 24 * time.Hour
	TTLDedup   = 24 * time.Hour
)
