package ports

// Subscription is the cancellation handle returned by every continuous store
// watch. Close releases the watch; closing an already-closed subscription is
// a no-op. Deliveries on distinct subscriptions are not ordered relative to
// each other, and every delivery carries the complete current value, never a
// delta.
type Subscription interface {
	Close()
}

// SubscriptionFunc adapts a plain cancel func to the Subscription interface.
type SubscriptionFunc func()

func (f SubscriptionFunc) Close() { f() }
