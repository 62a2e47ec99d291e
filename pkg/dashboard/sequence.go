package dashboard

import (
	"context"
	"sync"
)

// Ticket identifies one request issued through a Sequencer.
type Ticket uint64

// Sequencer guarantees last-issued-wins for a view's requests. Beginning a
// request cancels the context of the one before it, and only the holder of the
// newest ticket may apply its response.
type Sequencer struct {
	mu     sync.Mutex
	last   Ticket
	cancel context.CancelFunc
}

// Begin starts a request derived from ctx.
func (s *Sequencer) Begin(ctx context.Context) (context.Context, Ticket) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.last++
	return reqCtx, s.last
}

// Current reports whether t is the newest ticket.
func (s *Sequencer) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t == s.last
}

// Finish releases the context of t when it is still the newest request.
func (s *Sequencer) Finish(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == s.last && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Stop cancels the in-flight request and invalidates every issued ticket.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.last++
}
