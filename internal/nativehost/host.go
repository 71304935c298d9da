package nativehost

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// Client defines the daemon client methods used by the native host.
// *trackcli.Client satisfies it; tests substitute mocks.
type Client interface {
	Track(url string, opts *trackcli.TrackOpts) (*common.TrackResponse, error)
	Untrack(productId string) error
	List(opts *trackcli.ListOpts) (*common.ListResponse, error)
	History(productId string, opts *trackcli.HistoryOpts) (*common.HistoryResponse, error)
	Refresh(productId string, force bool) (*common.RefreshResponse, error)
	SetAlert(productId string, targetPrice tracklib.Price, dropPercent float64) (*common.AlertResponse, error)
	ClearAlert(productId string) (*common.AlertResponse, error)
	Status() (*common.StatusResponse, error)
	GetDaemonVersion() (*common.VersionResponse, error)
	Close() error
}

// TrackParams represents parameters for a track request.
type TrackParams struct {
	URL         string            `json:"url"`
	Title       string            `json:"title,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	CheckEvery  int64             `json:"checkEvery,omitempty"` // seconds
	CronExpr    string            `json:"cronExpr,omitempty"`
	TargetPrice tracklib.Price    `json:"targetPrice,omitempty"`
	DropPercent float64           `json:"dropPercent,omitempty"`
}

// UntrackParams represents parameters for an untrack request.
type UntrackParams struct {
	ProductID string `json:"productId"`
}

// ListParams represents parameters for a list request.
type ListParams struct {
	ShowPaused bool `json:"showPaused,omitempty"`
	ShowAll    bool `json:"showAll,omitempty"`
}

// HistoryParams represents parameters for a history request.
type HistoryParams struct {
	ProductID string `json:"productId"`
	Since     int64  `json:"since,omitempty"` // unix seconds
	Limit     int    `json:"limit,omitempty"`
}

// RefreshParams represents parameters for a refresh request.
type RefreshParams struct {
	ProductID string `json:"productId,omitempty"`
	Force     bool   `json:"force,omitempty"`
}

// SetAlertParams represents parameters for a setAlert request. A rule
// with neither targetPrice nor dropPercent clears the alert.
type SetAlertParams struct {
	ProductID   string         `json:"productId"`
	TargetPrice tracklib.Price `json:"targetPrice,omitempty"`
	DropPercent float64        `json:"dropPercent,omitempty"`
}

// Host is the native messaging host that bridges browser extensions to the daemon.
type Host struct {
	client Client
	stdin  io.Reader
	stdout io.Writer
}

// NewHost creates a new native messaging host with the given client.
// Uses os.Stdin and os.Stdout for communication.
func NewHost(client Client) *Host {
	return &Host{
		client: client,
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
}

// Run starts the native messaging host main loop.
// It reads requests from stdin, processes them, and writes responses to stdout.
// Returns when stdin is closed (EOF) or an unrecoverable error occurs.
func (h *Host) Run() error {
	for {
		err := h.processOneMessage()
		if err == io.EOF {
			return nil // Browser closed connection
		}
		if err != nil {
			return err
		}
	}
}

// processOneMessage reads and processes a single message.
func (h *Host) processOneMessage() error {
	data, err := ReadMessage(h.stdin)
	if err != nil {
		return err
	}

	req, err := ParseRequest(data)
	if err != nil {
		// Send error response with ID 0 since we couldn't parse
		resp := MakeErrorResponse(0, fmt.Errorf("invalid request: %w", err))
		return WriteMessage(h.stdout, resp)
	}

	resp := h.handleRequest(req)
	return WriteMessage(h.stdout, resp)
}

// handleRequest processes a request and returns the JSON response.
func (h *Host) handleRequest(req *Request) []byte {
	var result any
	var err error

	switch req.Method {
	case "version":
		result, err = h.client.GetDaemonVersion()

	case "status":
		result, err = h.client.Status()

	case "track":
		var params TrackParams
		if err = json.Unmarshal(req.Message, &params); err != nil {
			return MakeErrorResponse(req.ID, fmt.Errorf("invalid track params: %w", err))
		}
		if params.URL == "" {
			return MakeErrorResponse(req.ID, errors.New("url is required"))
		}
		opts := &trackcli.TrackOpts{
			Title:       params.Title,
			Currency:    params.Currency,
			Headers:     headersFromMap(params.Headers),
			CheckEvery:  time.Duration(params.CheckEvery) * time.Second,
			CronExpr:    params.CronExpr,
			TargetPrice: params.TargetPrice,
			DropPercent: params.DropPercent,
		}
		result, err = h.client.Track(params.URL, opts)

	case "untrack":
		var params UntrackParams
		if err = json.Unmarshal(req.Message, &params); err != nil {
			return MakeErrorResponse(req.ID, fmt.Errorf("invalid untrack params: %w", err))
		}
		if params.ProductID == "" {
			return MakeErrorResponse(req.ID, errors.New("productId is required"))
		}
		err = h.client.Untrack(params.ProductID)
		if err == nil {
			result = map[string]bool{"success": true}
		}

	case "list":
		var params ListParams
		if len(req.Message) > 0 {
			if err = json.Unmarshal(req.Message, &params); err != nil {
				return MakeErrorResponse(req.ID, fmt.Errorf("invalid list params: %w", err))
			}
		}
		opts := &trackcli.ListOpts{
			ShowPaused: params.ShowPaused,
			ShowAll:    params.ShowAll,
		}
		result, err = h.client.List(opts)

	case "history":
		var params HistoryParams
		if err = json.Unmarshal(req.Message, &params); err != nil {
			return MakeErrorResponse(req.ID, fmt.Errorf("invalid history params: %w", err))
		}
		if params.ProductID == "" {
			return MakeErrorResponse(req.ID, errors.New("productId is required"))
		}
		opts := &trackcli.HistoryOpts{Limit: params.Limit}
		if params.Since > 0 {
			opts.Since = time.Unix(params.Since, 0)
		}
		result, err = h.client.History(params.ProductID, opts)

	case "refresh":
		var params RefreshParams
		if len(req.Message) > 0 {
			if err = json.Unmarshal(req.Message, &params); err != nil {
				return MakeErrorResponse(req.ID, fmt.Errorf("invalid refresh params: %w", err))
			}
		}
		result, err = h.client.Refresh(params.ProductID, params.Force)

	case "setAlert":
		var params SetAlertParams
		if err = json.Unmarshal(req.Message, &params); err != nil {
			return MakeErrorResponse(req.ID, fmt.Errorf("invalid setAlert params: %w", err))
		}
		if params.ProductID == "" {
			return MakeErrorResponse(req.ID, errors.New("productId is required"))
		}
		if params.TargetPrice <= 0 && params.DropPercent <= 0 {
			result, err = h.client.ClearAlert(params.ProductID)
		} else {
			result, err = h.client.SetAlert(params.ProductID, params.TargetPrice, params.DropPercent)
		}

	default:
		return MakeErrorResponse(req.ID, fmt.Errorf("unknown method: %s", req.Method))
	}

	if err != nil {
		return MakeErrorResponse(req.ID, err)
	}
	return MakeSuccessResponse(req.ID, result)
}

// headersFromMap converts the extension's header object into the
// ordered header list refresh fetches use.
func headersFromMap(m map[string]string) tracklib.Headers {
	if len(m) == 0 {
		return nil
	}
	headers := make(tracklib.Headers, 0, len(m))
	for k, v := range m {
		headers = append(headers, tracklib.Header{Key: k, Value: v})
	}
	return headers
}
