// internal/mailbox/mailbox.go
package mailbox

import (
	"context"
	"sync/atomic"
)

const (
	readyBit    = 1 << 31
	leadsOffBit = 1 << 30
	valueMask   = 1<<16 - 1
)

// Sample is one acquisition from the front end.
type Sample struct {
	Value    uint16
	LeadsOff bool
}

// Stats is a snapshot of mailbox counters.
type Stats struct {
	Published   uint64
	Consumed    uint64
	Overwritten uint64 // published while the previous sample was still unconsumed
}

// Mailbox is a single-slot, latest-value hand-off between one producer and one consumer.
//
// The sample and its ready flag share one atomic word, so a consumer never sees a flag
// without the value it guards. Publish never blocks; an unconsumed sample is overwritten.
type Mailbox struct {
	slot   atomic.Uint32
	notify chan struct{}

	published   atomic.Uint64
	consumed    atomic.Uint64
	overwritten atomic.Uint64
}

// New returns an empty mailbox.
func New() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Publish stores s and marks it ready, replacing any unconsumed sample.
// Safe to call from a timer callback or audio thread.
func (m *Mailbox) Publish(s Sample) {
	word := uint32(readyBit) | uint32(s.Value)
	if s.LeadsOff {
		word |= leadsOffBit
	}
	prev := m.slot.Swap(word)
	m.published.Add(1)
	if prev&readyBit != 0 {
		m.overwritten.Add(1)
	}
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// TryConsume returns the pending sample and clears the ready flag.
// It reports false if nothing was published since the last consume.
func (m *Mailbox) TryConsume() (Sample, bool) {
	prev := m.slot.And(^uint32(readyBit))
	if prev&readyBit == 0 {
		return Sample{}, false
	}
	m.consumed.Add(1)
	return decode(prev), true
}

// Wait blocks until a sample is ready or ctx is done.
func (m *Mailbox) Wait(ctx context.Context) (Sample, error) {
	for {
		if s, ok := m.TryConsume(); ok {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return Sample{}, ctx.Err()
		case <-m.notify:
		}
	}
}

// Pending reports whether a sample is waiting to be consumed.
func (m *Mailbox) Pending() bool {
	return m.slot.Load()&readyBit != 0
}

// Stats returns a snapshot of the counters.
func (m *Mailbox) Stats() Stats {
	return Stats{
		Published:   m.published.Load(),
		Consumed:    m.consumed.Load(),
		Overwritten: m.overwritten.Load(),
	}
}

func decode(word uint32) Sample {
	return Sample{
		Value:    uint16(word & valueMask),
		LeadsOff: word&leadsOffBit != 0,
	}
}
