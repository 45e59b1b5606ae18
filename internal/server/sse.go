package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

const (
	eventStep     = "step"
	eventComplete = "complete"
	eventError    = "error"
)

var errNoFlush = errors.New("response writer cannot flush")

// eventStream writes server-sent events. Pipeline branches report from
// their own goroutines, so send is serialized.
type eventStream struct {
	ctx     context.Context
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

// openEventStream commits the 200 and the stream headers. Nothing is written
// when w cannot flush.
func openEventStream(ctx context.Context, w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errNoFlush
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &eventStream{ctx: ctx, w: w, flusher: flusher}, nil
}

// send writes one numbered event. After the client goes away it returns the
// context error without writing.
func (s *eventStream) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *eventStream) fail(message string) error {
	return s.send(eventError, ErrorResponse{Error: message})
}
