package progress

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// saver writes snapshots to the backend on a single background goroutine.
// Snapshots submitted while a save is running replace each other, so the
// backend sees saves in submission order and always ends on the latest.
type saver struct {
	backend Persistence
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	pending []Entry
	queued  bool
	running bool
	wg      sync.WaitGroup
}

func (s *saver) submit(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = entries
	s.queued = true
	if s.running {
		return
	}
	s.running = true
	s.wg.Add(1)
	go s.run()
}

func (s *saver) run() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if !s.queued {
			s.running = false
			s.mu.Unlock()
			return
		}
		entries := s.pending
		s.pending, s.queued = nil, false
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.backend.Save(ctx, entries)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Int("entries", len(entries)).Msg("progress save failed")
		}
	}
}

func (s *saver) wait() { s.wg.Wait() }
