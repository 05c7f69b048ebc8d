package middleware

import (
	"net/http"

	"github.com/tmcf/paceline/internal/session"
)

// RouteGroup represents a group of routes with common middleware
type RouteGroup struct {
	mux         *http.ServeMux
	middlewares []func(http.Handler) http.Handler
}

// NewRouteGroup creates a new route group with optional middleware
func NewRouteGroup(mux *http.ServeMux, middlewares ...func(http.Handler) http.Handler) *RouteGroup {
	return &RouteGroup{
		mux:         mux,
		middlewares: middlewares,
	}
}

// Handle registers a handler with the group's middleware stack
func (rg *RouteGroup) Handle(pattern string, handler http.Handler) {
	rg.mux.Handle(pattern, ApplyFunc(handler.ServeHTTP, rg.middlewares...))
}

// HandleFunc registers a handler function with the group's middleware stack
func (rg *RouteGroup) HandleFunc(pattern string, handlerFunc http.HandlerFunc) {
	rg.mux.Handle(pattern, ApplyFunc(handlerFunc, rg.middlewares...))
}

// Group creates a sub-group with additional middleware
func (rg *RouteGroup) Group(middlewares ...func(http.Handler) http.Handler) *RouteGroup {
	allMiddlewares := make([]func(http.Handler) http.Handler, len(rg.middlewares)+len(middlewares))
	copy(allMiddlewares, rg.middlewares)
	copy(allMiddlewares[len(rg.middlewares):], middlewares)

	return &RouteGroup{
		mux:         rg.mux,
		middlewares: allMiddlewares,
	}
}

// PublicGroup creates a route group with no middleware (auth endpoints, health)
func PublicGroup(mux *http.ServeMux) *RouteGroup {
	return NewRouteGroup(mux)
}

// ProtectedAPIGroup creates a route group requiring a valid app session
func ProtectedAPIGroup(mux *http.ServeMux, sessions *session.Service) *RouteGroup {
	return NewRouteGroup(mux, SessionAuth(sessions))
}
