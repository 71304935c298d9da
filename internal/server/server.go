package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/extract"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// Server manages RPC connections from CLI clients over a Unix socket
// (named pipe on Windows, TCP as a fallback). It dispatches incoming
// requests to registered handlers and owns the connection pool used to
// push refresh updates to subscribed clients.
type Server struct {
	log      *log.Logger
	pool     *Pool
	ws       *WebServer
	handler  map[common.UpdateType]HandlerFunc
	port     int
	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a new Server instance. The socket transport is the
// primary surface; the embedded web server (capture endpoint + JSON-RPC
// bridge) listens on port+1. A nil rpcCfg or empty secret leaves the
// JSON-RPC endpoint disabled.
func NewServer(l *log.Logger, m *tracklib.Manager, port int, ref *tracklib.Refresher, eng *extract.Engine, rpcCfg *RPCConfig) *Server {
	pool := NewPool(l)
	return &Server{
		log:     l,
		pool:    pool,
		handler: make(map[common.UpdateType]HandlerFunc),
		port:    port,
		ws:      NewWebServer(l, m, pool, port+1, ref, eng, rpcCfg),
	}
}

// RegisterHandler associates a handler function with a specific update type method.
// When a request with the given method is received, the corresponding handler is invoked.
func (s *Server) RegisterHandler(method common.UpdateType, handler HandlerFunc) {
	s.handler[method] = handler
}

// Pool exposes the connection pool so the api layer can broadcast
// refresh updates outside the request path.
func (s *Server) Pool() *Pool {
	return s.pool
}

// Notifier exposes the JSON-RPC push notifier. Nil when RPC is disabled.
func (s *Server) Notifier() *RPCNotifier {
	return s.ws.Notifier()
}

// Start begins listening for incoming connections and blocks until the context is canceled.
// It first starts the web server in a separate goroutine, then creates the platform
// listener (unix socket or named pipe, falling back to TCP) and accepts connections
// in a loop. Each connection is handled in its own goroutine.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		if err := s.ws.Start(); err != nil {
			s.log.Println("Web server error:", err.Error())
		}
	}()

	l, err := s.createListener()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	// Watch for context cancellation to trigger shutdown
	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			// Check if we're shutting down
			select {
			case <-ctx.Done():
				return nil // Clean shutdown
			default:
			}
			s.log.Println("Error accepting: ", err.Error())
			continue
		}
		// Handle connections in a new goroutine.
		go s.handleConnection(conn)
	}
}

// Shutdown gracefully stops the server by closing the listener and removing the socket file.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.log.Printf("Error closing listener: %v", err)
		}
		s.listener = nil
	}

	// Shutdown web server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.ws.Shutdown(shutdownCtx); err != nil {
		s.log.Printf("Error shutting down web server: %v", err)
	}

	if err := cleanupSocket(); err != nil {
		s.log.Printf("Error removing socket file: %v", err)
	}

	return nil
}

func (s *Server) handleConnection(conn net.Conn) {
	sconn := NewSyncConn(conn)
	defer conn.Close()
	for {
		buf, err := sconn.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			s.log.Println("Error reading:", err.Error())
			break
		}
		err = s.handlerWrapper(sconn, buf)
		if err != nil {
			s.log.Println("Error handling:", err.Error())
			break
		}
	}
}

func (s *Server) handlerWrapper(sconn *SyncConn, b []byte) error {
	req, err := ParseRequest(b)
	if err != nil {
		return fmt.Errorf("error parsing request: %s", err.Error())
	}
	rHandler, ok := s.handler[req.Method]
	if !ok {
		err = sconn.Write(CreateError("unknown method: " + string(req.Method)))
		if err != nil {
			return fmt.Errorf("error writing response: %s", err.Error())
		}
		return nil
	}
	utype, msg, err := rHandler(sconn, s.pool, req.Message)
	if err != nil {
		err = sconn.Write(InitError(err))
		if err != nil {
			return fmt.Errorf("error writing response: %s", err.Error())
		}
		return nil
	}
	err = sconn.Write(MakeResult(utype, msg))
	if err != nil {
		return fmt.Errorf("error writing response: %s", err.Error())
	}
	return nil
}
