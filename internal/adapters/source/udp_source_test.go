package source

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestUDPSourceDeliversDatagrams(t *testing.T) {
	src, err := NewUDPSource("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new udp source: %v", err)
	}

	out := make(chan []byte, 4)
	if err := src.Start(out); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer src.Stop()

	conn, err := net.Dial("udp", src.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	payload := []byte{1, 2, 3, 4, 5}
	if _, err := conn.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case frame := <-out:
		if !bytes.Equal(frame, payload) {
			t.Fatalf("unexpected frame: %v", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for frame")
	}
}

func TestUDPSourceStartTwice(t *testing.T) {
	src, err := NewUDPSource("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new udp source: %v", err)
	}
	out := make(chan []byte, 1)
	if err := src.Start(out); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer src.Stop()

	if err := src.Start(out); err == nil {
		t.Fatalf("expected second Start to fail")
	}
}

func TestUDPSourceRequiresAddr(t *testing.T) {
	if _, err := NewUDPSource(""); err == nil {
		t.Fatalf("expected error for empty address")
	}
}

func TestStubSourceReplaysFrames(t *testing.T) {
	src := NewStubSource([]byte{1}, []byte{2})
	out := make(chan []byte, 2)

	if err := src.Start(out); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(out))
	}
}
