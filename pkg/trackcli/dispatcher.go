package trackcli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tagwatch/tagwatch/common"
)

// Dispatcher routes daemon push updates to registered handlers by
// update type. Multiple handlers may be registered per type; they run
// in registration order.
type Dispatcher struct {
	Handlers map[common.UpdateType][]Handler
}

// ErrDisconnect stops the client's listen loop when returned from a
// handler.
var ErrDisconnect error = errors.New("disconnect")

// AddHandler registers a handler for the given update type.
func (d *Dispatcher) AddHandler(utype common.UpdateType, h Handler) {
	if d.Handlers == nil {
		d.Handlers = make(map[common.UpdateType][]Handler)
	}
	d.Handlers[utype] = append(d.Handlers[utype], h)
}

func (d *Dispatcher) process(buf []byte) error {
	var res Response
	err := json.Unmarshal(buf, &res)
	if err != nil {
		return fmt.Errorf("failed to parse (%s): '%s'", err.Error(), string(buf))
	}
	if !res.Ok {
		return errors.New(res.Error)
	}
	if res.Update == nil {
		return nil
	}
	hs, ok := d.Handlers[res.Update.Type]
	if !ok {
		return fmt.Errorf("no handler for update type %q", res.Update.Type)
	}
	for _, h := range hs {
		if err := h.Handle(res.Update.Message); err != nil {
			return err
		}
	}
	return nil
}
