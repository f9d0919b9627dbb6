package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Proton-105/cryptoassist-bot/internal/bot/handlers"
	"github.com/Proton-105/cryptoassist-bot/internal/bot/keyboard"
)

// Router dispatches commands, callbacks and free text to handlers through the middleware chain.
type Router struct {
	mu             sync.RWMutex
	commands       map[string]handlers.Handler
	callbacks      map[keyboard.CallbackKind]handlers.Handler
	defaultHandler handlers.Handler
	middlewares    []handlers.Middleware
	log            *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		callbacks:   make(map[keyboard.CallbackKind]handlers.Handler),
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command such as "/start".
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = h
}

// RegisterCallback registers a handler for a decoded callback kind.
func (r *Router) RegisterCallback(kind keyboard.CallbackKind, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[kind] = h
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetDefault sets the handler for free text and unregistered commands.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Route runs the handler matching req.Update wrapped in all middlewares.
// Unknown callbacks are acknowledged and otherwise ignored.
func (r *Router) Route(ctx context.Context, req *handlers.Request) error {
	if req == nil {
		return nil
	}

	route, handler := r.resolve(req.Update)
	if handler == nil {
		r.log.Debug("no handler for update", slog.Int64("telegram_id", req.Update.UserID), slog.String("route", route))
		return nil
	}

	req.Route = route
	return r.applyMiddlewares(handler)(ctx, req)
}

func (r *Router) resolve(update handlers.Update) (string, handlers.Handler) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch update.Kind {
	case handlers.UpdateCallback:
		if h, ok := r.callbacks[update.Callback.Kind]; ok && update.Callback.Kind != keyboard.CallbackUnknown {
			return "callback_" + update.Callback.Kind.String(), h
		}
		return RouteUnknownCallback, ackOnly
	case handlers.UpdateCommand:
		if h, ok := r.commands[update.Command]; ok {
			return update.Command, h
		}
	}

	return RouteText, r.defaultHandler
}

func ackOnly(ctx context.Context, req *handlers.Request) error {
	return req.Reply.Ack(ctx)
}

// applyMiddlewares wraps the handler with all registered middlewares, first registered outermost.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}
