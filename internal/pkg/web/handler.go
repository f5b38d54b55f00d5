package web

import (
	"net/http"
	"time"
)

type Headers map[string]string

type RequestFunc func(request *http.Request, simulatedDelay int) *Response

// Handler adapts a RequestFunc to http.Handler. SimulatedDelay is in milliseconds.
type Handler struct {
	Request        RequestFunc
	SimulatedDelay int
}

func (handler Handler) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	if handler.SimulatedDelay > 0 {
		time.Sleep(time.Duration(handler.SimulatedDelay) * time.Millisecond)
	}
	handler.Request(request, handler.SimulatedDelay).Write(responseWriter)
}
