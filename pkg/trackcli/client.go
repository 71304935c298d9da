package trackcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/tagwatch/tagwatch/common"
)

// Client is a connection to the tagwatch daemon. One connection serves
// request/response calls and, via Listen, the daemon's push updates.
type Client struct {
	mu     *sync.RWMutex
	d      *Dispatcher
	conn   net.Conn
	listen bool
}

// NewClient connects to the daemon, spawning it first when it is not
// running.
func NewClient() (*Client, error) {
	if err := ensureDaemonFunc(); err != nil {
		return nil, err
	}
	conn, err := dial()
	if err != nil {
		return nil, fmt.Errorf("error connecting to daemon: %s", err.Error())
	}
	return newClient(conn), nil
}

// NewClientWithURI connects to the daemon at the given URI
// (unix:///path, tcp://host:port, pipe://name) without spawning it.
func NewClientWithURI(rawURI string) (*Client, error) {
	uri, err := ParseDaemonURI(rawURI)
	if err != nil {
		return nil, err
	}
	conn, err := dialURI(uri)
	if err != nil {
		return nil, fmt.Errorf("error connecting to daemon: %s", err.Error())
	}
	return newClient(conn), nil
}

func newClient(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		mu:   &sync.RWMutex{},
		d: &Dispatcher{
			Handlers: make(map[common.UpdateType][]Handler),
		},
	}
}

// AddHandler registers a handler for pushed updates of the given type.
// Register handlers before calling Listen.
func (c *Client) AddHandler(utype common.UpdateType, h Handler) {
	c.d.AddHandler(utype, h)
}

// RemoveHandler drops every handler registered for the given type.
func (c *Client) RemoveHandler(utype common.UpdateType) {
	delete(c.d.Handlers, utype)
}

// Listen reads pushed updates until the connection drops, a handler
// returns ErrDisconnect or Disconnect is called. It closes the
// connection on return.
func (c *Client) Listen() (err error) {
	c.listen = true
	defer c.conn.Close()
	for c.listen {
		c.mu.RLock()
		var buf []byte
		buf, err = read(c.conn)
		if err != nil {
			c.mu.RUnlock()
			err = fmt.Errorf("error reading: %s", err.Error())
			return
		}
		err = c.d.process(buf)
		if err != nil {
			c.mu.RUnlock()
			if err == ErrDisconnect {
				err = nil
				break
			}
			err = fmt.Errorf("error processing: %s", err.Error())
			return
		}
		c.mu.RUnlock()
	}
	return
}

// Disconnect makes Listen exit after the update it is currently
// waiting on.
func (c *Client) Disconnect() {
	c.listen = false
}

// Close closes the daemon connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(method common.UpdateType, message any) (json.RawMessage, error) {
	// block the updates listener while invoking a method so the reply
	// frame is consumed here instead
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, err := json.Marshal(&Request{
		Method:  method,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %s", method, err.Error())
	}
	err = write(c.conn, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %s", method, err.Error())
	}
	buf, err = read(c.conn)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %s", method, err.Error())
	}
	var res Response
	err = json.Unmarshal(buf, &res)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %s", method, err.Error())
	}
	if !res.Ok {
		return nil, errors.New(res.Error)
	}
	if res.Update == nil {
		return nil, nil
	}
	return res.Update.Message, nil
}
