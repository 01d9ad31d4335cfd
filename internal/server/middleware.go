package server

import "net/http"

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware into a single middleware.
//
// The first middleware is the outermost: it runs first on the request and
// last on the response.
//
//	handler := server.Chain(
//	    server.RequestID(),
//	    server.Tracing(server.TracingConfig{}),
//	    server.Recovery(logger),
//	)(mux)
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
