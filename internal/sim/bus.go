package sim

// Bus fans events out to listeners synchronously, in subscription
// order. Every event reaches every listener before the pipeline
// accepts the next command; there are no goroutines and no buffering.
// A listener panic is not recovered: a faulty listener is a programming
// error and corrupting delivery order silently would be worse.
type Bus struct {
	listeners []func(Event)
	delivered uint64
}

// Subscribe registers a listener. Listeners receive every event in
// emission order and must not submit commands from inside the callback.
func (b *Bus) Subscribe(fn func(Event)) {
	b.listeners = append(b.listeners, fn)
}

// Delivered returns the number of events published so far.
func (b *Bus) Delivered() uint64 {
	return b.delivered
}

// publish hands one event to every listener. Only the Sim emits.
func (b *Bus) publish(ev Event) {
	b.delivered++
	for _, fn := range b.listeners {
		fn(ev)
	}
}
