package util

import "sync"

// SigHandler receives the object that emitted the signal plus free-form params.
type SigHandler func(sender any, params ...any)

type Signals struct {
	mu       sync.RWMutex
	handlers map[string][]SigHandler
}

var globalSignals = NewSignals()

func NewSignals() *Signals {
	return &Signals{handlers: make(map[string][]SigHandler)}
}

// Sig returns the process wide signal bus.
func Sig() *Signals { return globalSignals }

func (s *Signals) Connect(name string, h SigHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = append(s.handlers[name], h)
}

// Emit runs handlers synchronously in registration order.
func (s *Signals) Emit(name string, sender any, params ...any) {
	s.mu.RLock()
	hs := append([]SigHandler(nil), s.handlers[name]...)
	s.mu.RUnlock()
	for _, h := range hs {
		h(sender, params...)
	}
}

func (s *Signals) Clear(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, name)
}
