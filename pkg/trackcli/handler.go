package trackcli

import (
	"encoding/json"

	"github.com/tagwatch/tagwatch/common"
)

// Handler defines the interface for processing daemon updates.
// Implementations receive raw JSON messages and are responsible for
// unmarshaling and processing them appropriately.
type Handler interface {
	Handle(json.RawMessage) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(json.RawMessage) error

func (h HandlerFunc) Handle(m json.RawMessage) error { return h(m) }

// NewRefreshingHandler creates a handler for refresh stream updates.
// The action parameter filters updates to only those matching the given
// refresh action; pass an empty string to receive all actions. The
// callback is invoked for each matching update.
func NewRefreshingHandler(action common.RefreshAction, callback func(*common.RefreshingResponse) error) *RefreshingHandler {
	return &RefreshingHandler{
		Action:   action,
		Callback: callback,
	}
}

// RefreshingHandler processes refresh stream updates from the daemon.
// It filters updates by action and invokes a callback for matches.
type RefreshingHandler struct {
	Action   common.RefreshAction
	Callback func(*common.RefreshingResponse) error
}

// Handle unmarshals a raw refresh update, applies the action filter and
// invokes the callback if applicable.
func (h *RefreshingHandler) Handle(m json.RawMessage) error {
	var v common.RefreshingResponse
	err := json.Unmarshal(m, &v)
	if err != nil {
		return err
	}
	if h.Action != "" && v.Action != h.Action {
		return nil
	}
	return h.Callback(&v)
}
