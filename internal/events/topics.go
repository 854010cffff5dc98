package events

const (
	TopicCacheInvalidated = "admin.cache.invalidated"
	TopicLowStock         = "inventory.low_stock"
)

// Partition key = the entity id, so events for one product (or one
// process) stay in order.
func PartitionKey(id string) []byte { return []byte(id) }
