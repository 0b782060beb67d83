package engine

// Publisher fans a change event out to connected clients. Publishing is
// fire-and-forget: delivery failures stay inside the implementation and are
// never surfaced to the mutation caller.
type Publisher interface {
	Publish(channel, action string, payload interface{})
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(channel, action string, payload interface{}) {}
