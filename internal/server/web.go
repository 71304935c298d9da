package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
	"golang.org/x/net/websocket"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/extract"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// WebServer serves the browser extension surface: a WebSocket capture
// endpoint at the root (the extension pushes product pages the user asked
// to watch) and, when configured, a JSON-RPC 2.0 endpoint over HTTP POST
// (/jsonrpc) and WebSocket (/jsonrpc/ws) with push notifications.
type WebServer struct {
	port      int
	l         *log.Logger
	m         *tracklib.Manager
	pool      *Pool
	ref       *tracklib.Refresher
	rpc       *RPCServer
	notifier  *RPCNotifier
	listenAll bool
	server    *http.Server
	mu        sync.Mutex
}

// capturedProduct is what the extension sends when the user starts
// watching a page: the URL plus whatever session state makes the
// member-visible price reachable again.
type capturedProduct struct {
	Url      string           `json:"url"`
	Title    string           `json:"title,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Headers  tracklib.Headers `json:"headers,omitempty"`
	Cookies  []*http.Cookie   `json:"cookies,omitempty"`
}

// NewWebServer creates the web server. The JSON-RPC endpoint is only
// enabled when rpcCfg carries a non-empty secret.
func NewWebServer(l *log.Logger, m *tracklib.Manager, pool *Pool, port int, ref *tracklib.Refresher, eng *extract.Engine, rpcCfg *RPCConfig) *WebServer {
	ws := &WebServer{port: port, l: l, m: m, pool: pool, ref: ref}
	if rpcCfg != nil && rpcCfg.Secret != "" {
		ws.listenAll = rpcCfg.ListenAll
		ws.notifier = NewRPCNotifier(l)
		ws.rpc = NewRPCServer(rpcCfg, m, ref, eng, pool)
	}
	return ws
}

// Notifier returns the push notifier, nil when RPC is disabled.
func (s *WebServer) Notifier() *RPCNotifier {
	return s.notifier
}

// processCapture starts tracking a captured product page. Session
// cookies from the capture are folded into the product's fetch headers
// so member-only prices stay visible on later checks. The first price
// check runs in the background.
func (s *WebServer) processCapture(cp *capturedProduct) error {
	if s.m == nil {
		return errors.New("manager unavailable")
	}
	if cp.Url == "" {
		return errors.New("capture missing url")
	}
	headers := cp.Headers
	if cookie := cookieHeader(cp.Cookies); cookie != "" {
		headers.Update("Cookie", cookie)
	}
	prod, err := s.m.Track(cp.Url, &tracklib.TrackOpts{
		Title:    cp.Title,
		Currency: cp.Currency,
		Headers:  headers,
	})
	if err != nil && err != tracklib.ErrProductExists {
		return err
	}
	s.pool.AddProduct(prod.Hash, nil)
	if s.ref != nil {
		go func(hash string) {
			if _, err := s.ref.RefreshProduct(context.Background(), hash); err != nil {
				s.l.Println("Error checking captured product: ", err)
			}
		}(prod.Hash)
	}
	return nil
}

// cookieHeader renders captured cookies as a Cookie header value.
func cookieHeader(cookies []*http.Cookie) string {
	if len(cookies) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

func (s *WebServer) handleConnection(conn *websocket.Conn) {
	defer conn.Close()
	for {
		var data []byte
		err := websocket.Message.Receive(conn, &data)
		if err != nil {
			if err == io.EOF {
				s.l.Println("Connection closed")
				return
			}
			s.l.Println("Error receiving message: ", err)
			return
		}
		var cp capturedProduct
		err = json.Unmarshal(data, &cp)
		if err != nil {
			s.l.Println("Error unmarshalling data: ", err)
			continue
		}
		err = s.processCapture(&cp)
		if err != nil {
			s.l.Println("Error processing capture: ", err)
			continue
		}
	}
}

// serveWSRPC upgrades the connection and runs a jrpc2 server over it.
// The server registers with the notifier for the lifetime of the
// connection so refresh events reach the client as push notifications.
func (s *WebServer) serveWSRPC(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, &cws.AcceptOptions{
		// The bearer token is the auth boundary; extension origins
		// (chrome-extension://, moz-extension://) never match the host.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.l.Println("WebSocket accept failed: ", err)
		return
	}

	ch := &wsChannel{conn: conn, ctx: r.Context()}
	srv := jrpc2.NewServer(s.rpc.methods, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(ch)

	if s.notifier != nil {
		s.notifier.Register(srv)
	}
	if err := srv.Wait(); err != nil {
		s.l.Println("RPC session ended: ", err)
	}
	if s.notifier != nil {
		s.notifier.Unregister(srv)
	}
	_ = conn.Close(cws.StatusNormalClosure, "")
}

func (s *WebServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", websocket.Handler(s.handleConnection))
	if s.rpc != nil {
		mux.Handle("/jsonrpc", requireToken(s.rpc.secret, s.rpc.bridge))
		mux.Handle("/jsonrpc/ws", requireToken(s.rpc.secret, http.HandlerFunc(s.serveWSRPC)))
	}
	return mux
}

func (s *WebServer) addr() string {
	if s.listenAll {
		return fmt.Sprintf(":%d", s.port)
	}
	return fmt.Sprintf("%s:%d", common.TCPHost, s.port)
}

func (s *WebServer) Start() error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:    s.addr(),
		Handler: s.handler(),
	}
	s.mu.Unlock()

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil // Expected during shutdown
	}
	return err
}

// Shutdown gracefully stops the web server.
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rpc != nil {
		s.rpc.Close()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
