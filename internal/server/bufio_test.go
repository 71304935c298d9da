package server

import (
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tagwatch/tagwatch/common"
)

func TestFrameRoundTrip(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	payload := []byte(`{"type":"track"}`)
	go func() { _ = write(&sync.Mutex{}, c1, payload) }()

	got, err := read(&sync.Mutex{}, c2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("read = %q, want %q", got, payload)
	}
}

func TestFrameClosedConn(t *testing.T) {
	c1, c2 := net.Pipe()
	_ = c2.Close()
	defer c1.Close()

	if err := write(&sync.Mutex{}, c1, []byte("x")); err == nil {
		t.Error("write to closed conn succeeded")
	}
	if _, err := read(&sync.Mutex{}, c1); err == nil {
		t.Error("read from closed conn succeeded")
	}
}

func TestReadRejectsOversizedHeader(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	// A header past the cap must be rejected before any body allocation,
	// so only the 4 header bytes go over the wire.
	go func() {
		_, _ = c1.Write(intToBytes(uint32(common.MaxMessageSize + 1)))
	}()

	_, err := read(&sync.Mutex{}, c2)
	if err == nil {
		t.Fatal("oversized header accepted")
	}
	if !strings.Contains(err.Error(), "payload too large") {
		t.Fatalf("err = %v, want payload too large", err)
	}
}

func TestWriteRejectsOversizedPayload(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	err := write(&sync.Mutex{}, c1, make([]byte, common.MaxMessageSize+1))
	if err == nil {
		t.Fatal("oversized payload accepted")
	}
	if !strings.Contains(err.Error(), "payload too large") {
		t.Fatalf("err = %v, want payload too large", err)
	}
}

func TestReadSpansChunkedBody(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	body := []byte("hello world")

	// Header and body arrive in separate writes; read must block for the
	// full frame rather than return a short body.
	go func() {
		if _, err := c1.Write(intToBytes(uint32(len(body)))); err != nil {
			t.Errorf("write header: %v", err)
			return
		}
		time.Sleep(50 * time.Millisecond)
		if _, err := c1.Write(body); err != nil && err != io.ErrClosedPipe {
			t.Errorf("write body: %v", err)
		}
	}()

	got, err := read(&sync.Mutex{}, c2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("read = %q, want %q", got, body)
	}
}

func TestLengthPrefixRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 255, 256, 65535, 1 << 24, 0xFFFFFFFF} {
		if got := bytesToInt(intToBytes(v)); got != v {
			t.Errorf("bytesToInt(intToBytes(%d)) = %d", v, got)
		}
	}
}
