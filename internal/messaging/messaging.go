// Package messaging publishes and consumes the platform's lifecycle events
// over kafka, propagating trace context through message headers.
package messaging

// Topics carrying order and account lifecycle events.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
	TopicUserDeleted        = "user.deleted"
)
