package runtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/drblury/tagflow/internal/runtime/handlers"
	"github.com/drblury/tagflow/internal/runtime/jsoncodec"
)

// HandlerStats counts the dispatches of one handler.
type HandlerStats struct {
	Name                string    `json:"name"`
	Tags                []string  `json:"tags"`
	Params              []string  `json:"params"`
	MessagesProcessed   uint64    `json:"messages_processed"`
	MessagesFailed      uint64    `json:"messages_failed"`
	RepliesSent         uint64    `json:"replies_sent"`
	TotalProcessingTime int64     `json:"total_processing_time_ns"`
	LastProcessingTime  int64     `json:"last_processing_time_ns"`
	LastProcessedAt     time.Time `json:"last_processed_at"`
	LastError           string    `json:"last_error,omitempty"`
}

// StatsSnapshot is a point-in-time view of a listener's dispatches.
type StatsSnapshot struct {
	Listener  string         `json:"listener"`
	NoMatch   uint64         `json:"no_match"`
	Ambiguous uint64         `json:"ambiguous"`
	Handlers  []HandlerStats `json:"handlers"`
	TakenAt   time.Time      `json:"taken_at"`
}

// ListenerStats accumulates dispatch statistics through hooks.
type ListenerStats struct {
	mu        sync.Mutex
	listener  string
	noMatch   uint64
	ambiguous uint64
	order     []string
	handlers  map[string]*HandlerStats
}

func newListenerStats(listener string, registry *handlers.Registry) *ListenerStats {
	s := &ListenerStats{
		listener: listener,
		handlers: make(map[string]*HandlerStats, registry.Len()),
	}
	for _, d := range registry.Candidates() {
		s.order = append(s.order, d.Name())
		s.handlers[d.Name()] = &HandlerStats{
			Name:   d.Name(),
			Tags:   []string(d.Tags()),
			Params: d.Params(),
		}
	}
	return s
}

// Hooks returns hooks feeding the statistics.
func (s *ListenerStats) Hooks() DispatchHooks {
	return DispatchHooks{
		OnRouted: func(ev DispatchEvent) {
			s.record(ev, nil)
		},
		OnFault: func(ev DispatchEvent, err error) {
			s.record(ev, err)
		},
		OnNoMatch: func(DispatchEvent) {
			s.mu.Lock()
			s.noMatch++
			s.mu.Unlock()
		},
		OnAmbiguous: func(DispatchEvent) {
			s.mu.Lock()
			s.ambiguous++
			s.mu.Unlock()
		},
	}
}

func (s *ListenerStats) record(ev DispatchEvent, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handlers[ev.Handler]
	if !ok {
		return
	}
	h.MessagesProcessed++
	h.RepliesSent += uint64(ev.Sent)
	h.TotalProcessingTime += ev.Duration.Nanoseconds()
	h.LastProcessingTime = ev.Duration.Nanoseconds()
	h.LastProcessedAt = time.Now()
	if err != nil {
		h.MessagesFailed++
		h.LastError = err.Error()
	}
}

// Snapshot copies the current statistics.
func (s *ListenerStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Listener:  s.listener,
		NoMatch:   s.noMatch,
		Ambiguous: s.ambiguous,
		Handlers:  make([]HandlerStats, 0, len(s.order)),
		TakenAt:   time.Now(),
	}
	for _, name := range s.order {
		snap.Handlers = append(snap.Handlers, *s.handlers[name])
	}
	return snap
}

func (l *Listener) handleGetHandlers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := jsoncodec.Marshal(l.Stats())
	if err != nil {
		l.Logger.Error("Failed to encode handlers", err, nil)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
