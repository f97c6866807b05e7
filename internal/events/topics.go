package events

// Topic constants for domain events emitted by the pricing service.
const (
	TopicQuoteComputed = "pricing.quote_computed"
	TopicCodeRejected  = "pricing.code_rejected"
	TopicStockReserved = "inventory.stock_reserved"
	TopicStockReleased = "inventory.stock_released"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicQuoteComputed,
		TopicCodeRejected,
		TopicStockReserved,
		TopicStockReleased,
	}
}
