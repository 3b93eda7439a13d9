package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/papapumpkin/unlockmap/internal/identity"
	"github.com/papapumpkin/unlockmap/internal/progress"
)

// Remote errors.
var (
	ErrUnauthenticated = errors.New("persist: remote requires a signed-in viewer")
	ErrRemoteStatus    = errors.New("persist: remote returned an error status")
)

// RemoteConfig configures the progress service client.
type RemoteConfig struct {
	URL              string
	Timeout          time.Duration
	FailureThreshold uint32 // consecutive failures before the breaker opens
	OpenTimeout      time.Duration
}

// Remote talks to the progress service:
//
//	GET  {url}/progress/load            -> {"watchedProjects":[...]}
//	POST {url}/progress/save            <- {"watchedProjects":[...]}
//	GET  {url}/friends/progress/{name}  -> {"watchedProjects":[...]}
//
// Every request carries the viewer's bearer credential and runs through a
// circuit breaker so an unreachable service fails fast.
type Remote struct {
	base   string
	client *http.Client
	id     identity.Provider
	cb     *gobreaker.CircuitBreaker[[]byte]
	log    zerolog.Logger
}

// NewRemote creates a client for cfg.URL.
func NewRemote(cfg RemoteConfig, id identity.Provider, log zerolog.Logger) (*Remote, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("persist: bad remote url %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "progress-remote",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state change")
		},
		IsSuccessful: func(err error) bool {
			// A missing credential says nothing about the service's health.
			return err == nil || errors.Is(err, ErrUnauthenticated)
		},
	})

	return &Remote{
		base:   base,
		client: &http.Client{Timeout: cfg.Timeout},
		id:     id,
		cb:     cb,
		log:    log,
	}, nil
}

// Load implements progress.Persistence.
func (r *Remote) Load(ctx context.Context) ([]progress.Entry, error) {
	return r.fetch(ctx, "/progress/load")
}

// PeerProgress implements PeerSource.
func (r *Remote) PeerProgress(ctx context.Context, name string) ([]progress.Entry, error) {
	return r.fetch(ctx, "/friends/progress/"+url.PathEscape(strings.TrimSpace(name)))
}

// Save implements progress.Persistence.
func (r *Remote) Save(ctx context.Context, entries []progress.Entry) error {
	body, err := json.Marshal(toDocument(entries))
	if err != nil {
		return fmt.Errorf("persist: encode progress: %w", err)
	}
	_, err = r.do(ctx, http.MethodPost, "/progress/save", body)
	return err
}

func (r *Remote) fetch(ctx context.Context, path string) ([]progress.Entry, error) {
	data, err := r.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("persist: decode %s: %w", path, err)
	}
	return doc.entries(), nil
}

func (r *Remote) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	return r.cb.Execute(func() ([]byte, error) {
		token, ok := r.id.Credential()
		if !ok {
			return nil, ErrUnauthenticated
		}
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, r.base+path, rd)
		if err != nil {
			return nil, fmt.Errorf("persist: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("persist: %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return nil, fmt.Errorf("persist: read %s: %w", path, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %s %s: %d", ErrRemoteStatus, method, path, resp.StatusCode)
		}
		r.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("remote progress request")
		return data, nil
	})
}
