package kernel

import (
	"sync"

	"github.com/vanir-os/vanir/abi"
)

// Signals is a process's pending-signal set. This core only posts into
// it; delivery policy (handlers, default actions) lives behind the Post
// hook.
type Signals struct {
	mu      sync.Mutex
	pending map[abi.Signal]struct{}
}

func (s *Signals) Queue(sig abi.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		s.pending = make(map[abi.Signal]struct{})
	}

	s.pending[sig] = struct{}{}
}

func (s *Signals) Dequeue() (abi.Signal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sig := range s.pending {
		delete(s.pending, sig)
		return sig, true
	}

	return 0, false
}

func (s *Signals) Pending(sig abi.Signal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.pending[sig]
	return ok
}

// PostSignal queues sig on p and runs the delivery hook.
func (k *Kernel) PostSignal(p *Proc, sig abi.Signal) {
	k.L.Trace("post-signal", "pid", p.Pid, "signal", sig)

	p.signals.Queue(sig)
	k.Hooks.Post(p, sig)
}

// TakeSignal removes and returns one pending signal, for the external
// delivery path.
func (p *Proc) TakeSignal() (abi.Signal, bool) {
	return p.signals.Dequeue()
}
