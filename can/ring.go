package can

import "sync/atomic"

// Capacity is the fixed size of a Ring, per spec §3/§5.
const Capacity = 128

// Ring is a bounded single-producer (ISR context), single-consumer
// (main loop) FIFO of Event. The zero value is not usable; construct
// with NewRing.
//
// Correctness relies on the write index being published with a
// release store after the slot's contents are written, and read with
// an acquire load before the consumer touches that slot — the memory
// ordering discipline spec §9 asks for instead of "a ring protected by
// disabling interrupts".
type Ring struct {
	buf [Capacity]Event

	writeIdx atomic.Uint32 // published by producer, observed by consumer
	readIdx  atomic.Uint32 // published by consumer, observed by producer

	overflow atomic.Uint32
}

// NewRing constructs an empty Ring.
func NewRing() *Ring {
	return &Ring{}
}

// Push is called from ISR context to enqueue one event. If the ring is
// full, the event is dropped and the overflow counter is incremented;
// Push never blocks.
func (r *Ring) Push(e Event) {
	w := r.writeIdx.Load()
	read := r.readIdx.Load()

	next := (w + 1) % Capacity
	if next == read {
		r.overflow.Add(1)
		return
	}

	r.buf[w] = e
	r.writeIdx.Store(next)
}

// Pop is called from the main loop to dequeue one event. It returns
// false if the ring is empty.
func (r *Ring) Pop() (Event, bool) {
	read := r.readIdx.Load()
	w := r.writeIdx.Load()

	if read == w {
		return Event{}, false
	}

	e := r.buf[read]
	r.readIdx.Store((read + 1) % Capacity)

	return e, true
}

// Overflow returns the number of events dropped because the ring was
// full at Push time.
func (r *Ring) Overflow() uint32 {
	return r.overflow.Load()
}

// Len reports the number of events currently queued. It is advisory —
// safe to call from either side, but may be stale the instant it
// returns under concurrent Push/Pop.
func (r *Ring) Len() int {
	w := int(r.writeIdx.Load())
	read := int(r.readIdx.Load())
	if w >= read {
		return w - read
	}
	return Capacity - read + w
}
