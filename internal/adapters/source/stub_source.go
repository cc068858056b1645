package source

import "sync"

// StubSource replays a fixed set of frames. It stands in for the radio bridge
// in tests and dry runs, the same way a stub driver replaces the hardware
// radio.
type StubSource struct {
	frames [][]byte

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

func NewStubSource(frames ...[]byte) *StubSource {
	return &StubSource{frames: frames}
}

func (s *StubSource) Start(out chan<- []byte) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		for _, f := range s.frames {
			out <- f
		}
	}()
	return nil
}

func (s *StubSource) Stop() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
	return nil
}
