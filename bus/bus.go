// Package bus is the only channel between capture contexts, the UI surfaces
// and the coordinator. It offers two send modes: fire-and-forget notifies and
// awaited requests with at most one response. A recipient that is gone is a
// non-fatal delivery failure, never surfaced to notify senders.
package bus

import (
	"errors"
	"sync"

	"clementus360/activity-agent/types"

	"github.com/google/uuid"
)

var ErrClosed = errors.New("bus closed")

// Envelope wraps one inbound message. Reply delivers at most one response to
// the original sender; further replies are dropped. Notify envelopes have no
// reply slot, so Reply on them is a no-op.
type Envelope struct {
	ID   string
	Msg  types.Message
	once sync.Once
	resp chan types.Response
}

func (e *Envelope) Reply(r types.Response) {
	if e.resp == nil {
		return
	}
	e.once.Do(func() {
		e.resp <- r
		close(e.resp)
	})
}

type Bus struct {
	mu     sync.Mutex
	inbox  chan *Envelope
	subs   map[string]chan types.Message
	closed bool
}

func New(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Bus{
		inbox: make(chan *Envelope, queueSize),
		subs:  make(map[string]chan types.Message),
	}
}

// Inbox is consumed by the coordinator. Messages sent from one goroutine are
// delivered in send order; no ordering holds across senders.
func (b *Bus) Inbox() <-chan *Envelope {
	return b.inbox
}

// Notify sends without waiting for a response. A closed bus swallows the
// message: silent loss is the accepted failure mode for this tier.
func (b *Bus) Notify(msg types.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.inbox <- &Envelope{ID: uuid.NewString(), Msg: msg}
}

// Request sends and blocks until the single response arrives. The only error
// is a closed bus, i.e. the coordinator is gone.
func (b *Bus) Request(msg types.Message) (types.Response, error) {
	env := &Envelope{
		ID:   uuid.NewString(),
		Msg:  msg,
		resp: make(chan types.Response, 1),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.inbox <- env
	b.mu.Unlock()

	r, ok := <-env.resp
	if !ok {
		return nil, ErrClosed
	}
	return r, nil
}

// Subscribe registers a capture context for broadcasts.
func (b *Bus) Subscribe(id string, buffer int) <-chan types.Message {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan types.Message, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[id] = ch
	return ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Broadcast delivers to every subscriber. A full or vanished inbox drops the
// message for that recipient only.
func (b *Bus) Broadcast(msg types.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Close stops accepting sends and releases pending requesters.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.inbox)
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
