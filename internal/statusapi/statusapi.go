// Package statusapi is a localhost-only HTTP surface for operating the
// bot without going through chat: health, known users, queue depth and
// a live event stream. It is read-only; commands stay in chat.
package statusapi

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"hirebot-engine/internal/events"
	"hirebot-engine/internal/store"
)

type Deps struct {
	DB  *sql.DB
	Hub *events.Hub

	// QueueLen reports current task queue depth.
	QueueLen func() int
}

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"ok": true, "time": time.Now().UTC().Format(time.RFC3339)})
		},
	}))

	mux.HandleFunc("/users", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) {
			ids, err := store.ListUserIDs(r.Context(), d.DB)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, map[string]any{"users": ids})
		},
	}))

	mux.HandleFunc("/queue", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) {
			depth := 0
			if d.QueueLen != nil {
				depth = d.QueueLen()
			}
			writeJSON(w, map[string]any{"depth": depth})
		},
	}))

	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) {
			serveSSE(w, r, d.Hub)
		},
	}))

	return mux
}

func serveSSE(w http.ResponseWriter, r *http.Request, hub *events.Hub) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	fmt.Fprint(w, "event: ping\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, chOK := <-ch:
			if !chOK {
				return
			}
			b, _ := json.Marshal(evt)
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", b)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func methodMux(m map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
