package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sentirec/internal/vectorstore"
)

// storeCheck pings the vector store and reuses the outcome for interval.
type storeCheck struct {
	store    vectorstore.Store
	timeout  time.Duration
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	checked time.Time
	err     error
}

// check returns the last ping error, pinging again once the cached result expired.
func (p *storeCheck) check() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.interval > 0 && !p.checked.IsZero() && time.Since(p.checked) < p.interval {
		return p.err
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	err := p.store.Ping(ctx)
	if err != nil && p.err == nil {
		p.log.Warn().Err(err).Str("backend", p.store.Backend()).Msg("vector store ping failed")
	} else if err == nil && p.err != nil {
		p.log.Info().Str("backend", p.store.Backend()).Msg("vector store reachable again")
	}
	p.err = err
	p.checked = time.Now()
	return err
}
