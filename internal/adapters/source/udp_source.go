package source

import (
	"errors"
	"fmt"
	"net"
	"sync"
)

// UDPSource receives raw frames as UDP datagrams, one frame per datagram.
// A serial or ESP-NOW bridge on the bench forwards each radio frame verbatim,
// so the datagram payload is exactly the on-air record. Size validation stays
// with the coordinator; the source forwards whatever arrives.
type UDPSource struct {
	addr string

	mu      sync.Mutex
	conn    *net.UDPConn
	started bool
	wg      sync.WaitGroup
}

func NewUDPSource(addr string) (*UDPSource, error) {
	if addr == "" {
		return nil, errors.New("udp source: listen address is required")
	}
	return &UDPSource{addr: addr}, nil
}

func (s *UDPSource) Start(out chan<- []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("udp source already started")
	}

	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return fmt.Errorf("udp source resolve %q: %w", s.addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("udp source listen: %w", err)
	}

	s.conn = conn
	s.started = true

	s.wg.Add(1)
	go s.readLoop(conn, out)
	return nil
}

// Addr reports the bound listen address, or nil before Start.
func (s *UDPSource) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

func (s *UDPSource) readLoop(conn *net.UDPConn, out chan<- []byte) {
	defer s.wg.Done()

	buf := make([]byte, 512)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			// Closed during Stop; any other error also ends the loop since
			// the socket is unusable.
			return
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])

		select {
		case out <- frame:
		default:
			// Bounded channel full: drop the frame, same as radio loss. The
			// sequence tracker accounts for it on the next accepted packet.
		}
	}
}

func (s *UDPSource) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	conn := s.conn
	s.started = false
	s.conn = nil
	s.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	s.wg.Wait()
	return err
}
