package chat

import (
	"context"
	"log"
	"strings"
	"sync"
)

type HandlerFunc func(ctx context.Context, msg Message)

// Router maps command names to handlers. Each inbound message runs in
// its own goroutine; handlers do not block each other.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

func (r *Router) Handle(command string, fn HandlerFunc) {
	r.mu.Lock()
	r.handlers[command] = fn
	r.mu.Unlock()
}

func (r *Router) Dispatch(ctx context.Context, msg Message) {
	r.mu.RLock()
	fn, ok := r.handlers[msg.Command]
	r.mu.RUnlock()
	if !ok {
		log.Printf("[router] unknown command /%s from %s", msg.Command, msg.FromID)
		return
	}
	go fn(ctx, msg)
}

// Run consumes messages until the channel closes or ctx is done.
func (r *Router) Run(ctx context.Context, msgs <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			r.Dispatch(ctx, msg)
		}
	}
}

func splitArgs(raw string) []string {
	return strings.Fields(raw)
}
