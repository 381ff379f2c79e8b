package bus

import "time"

// Event represents a domain event published on the bus, e.g. a cache
// mutation ("store.contacts_changed") or an engine status change.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
