// Package telemetry keeps an activity journal: a JSONL stream with one event
// per progress change, so a viewer's history can be listed and replayed long
// after the store itself only holds the current counts.
package telemetry

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/papapumpkin/unlockmap/internal/progress"
)

// Event kinds identify the type of journal event.
const (
	KindSessionStart = "session_start"
	KindWatched      = "watched"
	KindWatchedAgain = "watched_again"
	KindUnwatched    = "unwatched"
	KindCoViewer     = "co_viewer"
	KindMedia        = "media"
	KindCleared      = "cleared"
	KindMarkedAll    = "marked_all"
	KindPeerEntered  = "peer_entered"
	KindPeerExited   = "peer_exited"
)

// Event is a single journal record.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Session   string    `json:"session,omitempty"`
	User      string    `json:"user,omitempty"`
	NodeID    string    `json:"node,omitempty"`
	Count     int       `json:"count,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes journal events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewEmitter creates a new Emitter that writes JSONL events to the file at
// path. The file is created if it does not exist, or appended to if it does.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Emit writes a single event to the JSONL file. It is safe for concurrent use.
// Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}

// Meta identifies who produced a stream of events.
type Meta struct {
	Session string
	User    string
}

// Attach journals every change the store reports until the returned detach
// func is called. Emit failures are logged and otherwise ignored; the journal
// never blocks a mutation.
func Attach(store *progress.Store, e *Emitter, meta Meta, log zerolog.Logger) (detach func()) {
	emit := func(evt Event) {
		evt.Timestamp = time.Now().UTC()
		evt.Session, evt.User = meta.Session, meta.User
		if err := e.Emit(evt); err != nil {
			log.Warn().Err(err).Str("kind", evt.Kind).Msg("journal write failed")
		}
	}
	emit(Event{Kind: KindSessionStart, Count: store.Len()})

	return store.Subscribe(func(c progress.Change) {
		evt, ok := eventFor(store, c)
		if ok {
			emit(evt)
		}
	})
}

// eventFor maps a store change to a journal event. Loads are not journaled.
func eventFor(store *progress.Store, c progress.Change) (Event, bool) {
	evt := Event{NodeID: c.NodeID, Count: store.Count(c.NodeID)}
	switch c.Kind {
	case progress.ChangeToggled:
		evt.Kind = KindUnwatched
		if store.IsWatched(c.NodeID) {
			evt.Kind = KindWatched
		}
	case progress.ChangeWatchedAgain:
		evt.Kind = KindWatchedAgain
	case progress.ChangeCoViewer:
		evt.Kind = KindCoViewer
		evt.Data = store.CoViewers(c.NodeID)
	case progress.ChangeMedia:
		evt.Kind = KindMedia
		evt.Data = map[string]int{"items": len(store.Media(c.NodeID))}
	case progress.ChangeCleared:
		evt.Kind = KindCleared
	case progress.ChangeMarkedAll:
		evt.Kind = KindMarkedAll
		evt.Count = store.Len()
	case progress.ChangePeerEntered:
		evt.Kind = KindPeerEntered
		evt.Data = map[string]string{"owner": store.PeerOwner()}
	case progress.ChangePeerExited:
		evt.Kind = KindPeerExited
	default:
		return Event{}, false
	}
	return evt, true
}

// Read returns every event in the journal at path, oldest first. A missing
// file is an empty journal. Lines that do not decode are skipped.
func Read(path string) ([]Event, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	defer f.Close()

	var out []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var evt Event
		if err := json.Unmarshal(line, &evt); err != nil {
			continue
		}
		out = append(out, evt)
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("telemetry: read %s: %w", path, err)
	}
	return out, nil
}
