package server

import (
	"fmt"
	"log"
	"sync"
)

// PoolAllProducts is the reserved pool key whole-cycle refresh updates
// are broadcast under. Clients following `refresh` subscribe here;
// per-product subscribers use the product hash.
const PoolAllProducts = "*"

// Pool tracks which client connections follow which products so refresh
// updates can be pushed to them. Connections write through SyncConn, so
// concurrent broadcasts and request responses never interleave frames.
type Pool struct {
	mu *sync.RWMutex
	m  map[string][]*SyncConn
	e  map[string]*Error
}

func NewPool(l *log.Logger) *Pool {
	return &Pool{
		mu: &sync.RWMutex{},
		m:  make(map[string][]*SyncConn),
		e:  make(map[string]*Error),
	}
}

// AddProduct registers uid in the pool, subscribing conn to its updates.
// A nil conn creates the entry without subscribers; any previous
// subscriber list is replaced.
func (p *Pool) AddProduct(uid string, conn *SyncConn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn == nil {
		p.m[uid] = []*SyncConn{}
		return
	}
	p.m[uid] = []*SyncConn{conn}
}

// AddConnection subscribes an additional connection to uid's updates.
// A single write lock keeps concurrent registrations from losing each
// other's appends.
func (p *Pool) AddConnection(uid string, conn *SyncConn) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[uid] = append(p.m[uid], conn)
}

// HasProduct reports whether uid is registered in the pool.
func (p *Pool) HasProduct(uid string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.m[uid]
	return ok
}

// RemoveProduct drops uid and its recorded error. Subscriber connections
// stay open; a connection may be following other products.
func (p *Pool) RemoveProduct(uid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, uid)
	delete(p.e, uid)
}

// Broadcast sends data to every connection subscribed to uid. A failed
// write drops that connection from the pool and aborts the broadcast.
func (p *Pool) Broadcast(uid string, data []byte) error {
	p.mu.RLock()
	conns := p.m[uid]
	p.mu.RUnlock()
	for i, conn := range conns {
		err := conn.Write(data)
		if err != nil {
			p.removeConn(uid, i)
			return fmt.Errorf("error writing: %s", err.Error())
		}
	}
	return nil
}

func (p *Pool) WriteError(uid string, errType ErrorType, errMessage string) {
	p.mu.RLock()
	err, ok := p.e[uid]
	if ok && err.Type == ErrorTypeCritical && errType != ErrorTypeCritical {
		p.mu.RUnlock()
		return
	}
	p.mu.RUnlock()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.e[uid] = &Error{errType, errMessage}
}

func (p *Pool) ForceWriteError(uid string, errType ErrorType, errMessage string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.e[uid] = &Error{errType, errMessage}
}

func (p *Pool) GetError(uid string) *Error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.e[uid]
}

func (p *Pool) removeConn(uid string, connIndex int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	conns := p.m[uid]
	if connIndex >= len(conns) {
		return
	}
	if conns[connIndex].Conn != nil {
		_ = conns[connIndex].Conn.Close()
	}
	// shift last connection to the current connIndex
	conns[connIndex] = conns[len(conns)-1]
	// slice the last connection
	p.m[uid] = conns[:len(conns)-1]
}
