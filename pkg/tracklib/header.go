package tracklib

import "net/http"

const (
	// Header keys
	USER_AGENT_KEY = "User-Agent"
)

// Header represents a key-value pair.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Set sets the header in the given http.Header.
func (h *Header) Set(header http.Header) {
	header.Set(h.Key, h.Value)
}

// Headers represents a list of headers attached to refresh fetches.
type Headers []Header

// Get returns the index of the header with the given key.
// If the header is not found, the second return value is false.
func (h Headers) Get(key string) (index int, have bool) {
	for i, x := range h {
		if x.Key != key {
			continue
		}
		index = i
		have = true
		break
	}
	return
}

// InitOrUpdate appends the header with the given key and value
// unless a header with that key is already present.
func (h *Headers) InitOrUpdate(key, value string) {
	_, ok := h.Get(key)
	if ok {
		return
	}
	*h = append(*h, Header{key, value})
}

// Update replaces the header with the given key, appending it when absent.
func (h *Headers) Update(key, value string) {
	i, ok := h.Get(key)
	if ok {
		(*h)[i] = Header{key, value}
		return
	}
	*h = append(*h, Header{key, value})
}

// Set applies all headers to the given http.Header.
func (h Headers) Set(header http.Header) {
	for _, x := range h {
		x.Set(header)
	}
}
