// Package events defines what the admin processes tell each other over
// Kafka.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventCacheInvalidated = "CacheInvalidated"
	EventLowStock         = "LowStockDetected"
)

const Version = 1

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the Event* constants
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g. "scent-admin"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// New wraps payload in a version 1 envelope.
func New(eventType, producer string, at time.Time, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: Version,
		OccurredAt:   at.UTC(),
		Producer:     producer,
		Payload:      b,
	}, nil
}

// ---- payloads ----

// CacheInvalidatedPayload is sent for every local cache clear. Origin is the
// sending process, so it can skip its own messages.
type CacheInvalidatedPayload struct {
	Origin     string `json:"origin"`
	Reason     string `json:"reason"`
	Generation uint64 `json:"generation"`
}

type LowStockPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	SKU       string `json:"sku,omitempty"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
	Status    string `json:"status"` // low_stock | out_of_stock
}
