package server

import (
	"net"
	"sync"
)

// SyncConn wraps a net.Conn with independent read and write locks so one
// goroutine can stream push updates to a client while another answers its
// requests, without interleaving frames.
type SyncConn struct {
	Conn     net.Conn
	rmu, wmu sync.Mutex
}

func NewSyncConn(conn net.Conn) *SyncConn {
	return &SyncConn{Conn: conn}
}

// Write sends one length-prefixed frame.
func (s *SyncConn) Write(b []byte) error {
	return write(&s.wmu, s.Conn, b)
}

// Read receives one length-prefixed frame.
func (s *SyncConn) Read() ([]byte, error) {
	return read(&s.rmu, s.Conn)
}
