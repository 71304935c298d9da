package tracklib

import (
	"log"
	"runtime"
)

type (
	// RefreshErrorHandlerFunc handles a failed price check.
	// It takes a product hash and the error as arguments.
	RefreshErrorHandlerFunc func(hash string, err error)
	// RefreshStartHandlerFunc is called when a product's price check begins.
	RefreshStartHandlerFunc func(hash string)
	// PriceUpdatedHandlerFunc is called when a check observes a changed price.
	PriceUpdatedHandlerFunc func(hash string, old, new Price, currency string)
	// PriceUnchangedHandlerFunc is called when a check observes the same price.
	PriceUnchangedHandlerFunc func(hash string, price Price)
	// AlertHandlerFunc is called when a product's alert rule fires.
	AlertHandlerFunc func(hash string, old, new Price, currency string)
	// CycleCompleteHandlerFunc is called once per refresh cycle with counts
	// of checked, changed and failed products.
	CycleCompleteHandlerFunc func(checked, changed, failed int)
)

// RefreshHandlers carries the callbacks a refresh cycle reports through.
// Any nil handler is replaced with a no-op; errors are always logged.
type RefreshHandlers struct {
	RefreshStartHandler   RefreshStartHandlerFunc
	PriceUpdatedHandler   PriceUpdatedHandlerFunc
	PriceUnchangedHandler PriceUnchangedHandlerFunc
	ErrorHandler          RefreshErrorHandlerFunc
	AlertHandler          AlertHandlerFunc
	CycleCompleteHandler  CycleCompleteHandlerFunc
}

func (h *RefreshHandlers) setDefault(l *log.Logger) {
	if h.RefreshStartHandler == nil {
		h.RefreshStartHandler = func(hash string) {}
	}
	if h.PriceUpdatedHandler == nil {
		h.PriceUpdatedHandler = func(hash string, old, new Price, currency string) {}
	}
	if h.PriceUnchangedHandler == nil {
		h.PriceUnchangedHandler = func(hash string, price Price) {}
	}
	if h.AlertHandler == nil {
		h.AlertHandler = func(hash string, old, new Price, currency string) {}
	}
	if h.ErrorHandler == nil {
		h.ErrorHandler = func(hash string, err error) {
			wlog(l, "%s: Error: %s", hash, err.Error())
		}
	} else {
		errHandler := h.ErrorHandler
		h.ErrorHandler = func(hash string, err error) {
			wlog(l, "%s: Error: %s", hash, err.Error())
			errHandler(hash, err)
		}
	}
	if h.CycleCompleteHandler == nil {
		h.CycleCompleteHandler = func(checked, changed, failed int) {}
	}
}

func wlog(l *log.Logger, s string, a ...any) {
	esc := "\n"
	switch runtime.GOOS {
	case "windows":
		esc = "\r\n"
	}
	l.Printf(s+esc, a...)
}
