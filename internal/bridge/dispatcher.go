package bridge

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrClosed is returned by Post after Close.
var ErrClosed = eris.New("bridge: dispatcher closed")

// Handler reacts to artifact messages on the host side.
type Handler interface {
	OnResize(ctx context.Context, s SizeChange)
	OnAction(ctx context.Context, a UserAction)
}

// Dispatcher delivers messages to a Handler on a single goroutine. Post
// never blocks. Pending size changes for the same artifact collapse into the
// latest one; user actions are delivered once each, in order.
type Dispatcher struct {
	h   Handler
	ctx context.Context

	mu      sync.Mutex
	queue   []*Message
	pending map[string]*Message // uri -> queued size change
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// NewDispatcher starts a dispatcher. ctx is passed to handler calls.
func NewDispatcher(ctx context.Context, h Handler) *Dispatcher {
	d := &Dispatcher{
		h:       h,
		ctx:     ctx,
		pending: make(map[string]*Message),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Post enqueues m for delivery.
func (d *Dispatcher) Post(m Message) error {
	if m.Size == nil && m.Action == nil {
		return eris.New("bridge: empty message")
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if m.Size != nil {
		if queued, ok := d.pending[m.Size.URI]; ok {
			queued.Size = m.Size
			d.mu.Unlock()
			return nil
		}
	}
	msg := m
	d.queue = append(d.queue, &msg)
	if m.Size != nil {
		d.pending[m.Size.URI] = &msg
	}
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

func (d *Dispatcher) take() ([]*Message, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	batch := d.queue
	d.queue = nil
	clear(d.pending)
	return batch, d.closed
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		batch, closed := d.take()
		for _, m := range batch {
			d.deliver(m)
		}
		if closed && len(batch) == 0 {
			return
		}
		if len(batch) > 0 {
			continue
		}
		<-d.wake
	}
}

func (d *Dispatcher) deliver(m *Message) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("bridge: handler panic", zap.Any("panic", r), zap.String("uri", m.URI()))
		}
	}()
	switch {
	case m.Size != nil:
		d.h.OnResize(d.ctx, *m.Size)
	case m.Action != nil:
		d.h.OnAction(d.ctx, *m.Action)
	}
}

// Close stops accepting messages, delivers what is queued and waits for the
// delivery goroutine to exit or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		select {
		case d.wake <- struct{}{}:
		default:
		}
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "bridge: close")
	}
}
