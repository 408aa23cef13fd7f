package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
)

// Event kinds on the client-visible stream.
const (
	KindStatus  = "status"
	KindChat    = "chat"
	KindArticle = "article"
	KindImage   = "image"
	KindDone    = "done"
	KindError   = "error"
)

// Event is one typed, ordered unit on the stream.
type Event struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// Emitter delivers events to the client. Delivery is best-effort:
// implementations never return errors to the caller, and writes after
// Close are dropped.
type Emitter interface {
	Emit(kind string, payload any)
	Close()
}

// LineEmitter frames each event as "<kind>:<json>\n" and flushes it
// immediately so the client sees events in emission order. Emission
// failures (slow or disconnected consumers) are swallowed; the session
// keeps running.
type LineEmitter struct {
	mu     sync.Mutex
	w      io.Writer
	logger *log.Logger
	closed bool
	failed bool
}

// NewLineEmitter wraps w. If w implements http.Flusher each record is
// flushed as soon as it is written.
func NewLineEmitter(w io.Writer, logger *log.Logger) *LineEmitter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LineEmitter{w: w, logger: logger}
}

func (e *LineEmitter) Emit(kind string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.failed {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		e.logger.Printf("drop %s event: marshal: %v", kind, err)
		return
	}
	if _, err := fmt.Fprintf(e.w, "%s:%s\n", kind, body); err != nil {
		// Client gone. Keep the session alive but stop writing.
		e.logger.Printf("drop %s event: write: %v", kind, err)
		e.failed = true
		return
	}
	if f, ok := e.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Close releases the emitter. Further Emit calls are no-ops.
func (e *LineEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}
