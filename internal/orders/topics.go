package orders

const (
	TopicOrderPlaced        = "ledger.order.placed"
	TopicOrderRevised       = "ledger.order.revised"
	TopicOrderStatusChanged = "ledger.order.status"
	TopicOrderCancelled     = "ledger.order.cancelled"
	TopicProductChanged     = "ledger.product.changed"
	TopicProductDeleted     = "ledger.product.deleted"
)

var eventTopics = map[string]string{
	EventOrderPlaced:        TopicOrderPlaced,
	EventOrderRevised:       TopicOrderRevised,
	EventOrderStatusChanged: TopicOrderStatusChanged,
	EventOrderCancelled:     TopicOrderCancelled,
	EventProductChanged:     TopicProductChanged,
	EventProductDeleted:     TopicProductDeleted,
}

// TopicFor returns the topic an event type is published on.
func TopicFor(eventType string) (string, bool) {
	t, ok := eventTopics[eventType]
	return t, ok
}

// AllTopics is what the projector subscribes to.
func AllTopics() []string {
	return []string{
		TopicOrderPlaced,
		TopicOrderRevised,
		TopicOrderStatusChanged,
		TopicOrderCancelled,
		TopicProductChanged,
		TopicProductDeleted,
	}
}

// Partition key = order_id / product_id. Ini cuma menjaga urutan di dalam satu topic;
// antar topic tidak ada jaminan, makanya payload membawa version.
func PartitionKey(id string) []byte { return []byte(id) }
