package infra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"document-submitter/middleware/ratelimit/domain"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// TokenBucketGate é a política alternativa ao RateGate: em vez de voltar à
// capacidade total a cada janela, repõe `capacity` tokens distribuídos ao longo
// de `window` (golang.org/x/time/rate). Rajada máxima = capacity.
type TokenBucketGate struct {
	lim      *rate.Limiter
	capacity int
	window   time.Duration

	stopOnce sync.Once

	logger  zerolog.Logger
	metrics *Metrics
}

func NewTokenBucketGate(capacity int, window time.Duration, opts ...GateOption) (*TokenBucketGate, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0, got %d", domain.ErrInvalidConfiguration, capacity)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be > 0, got %s", domain.ErrInvalidConfiguration, window)
	}

	o := newGateOptions(opts)
	g := &TokenBucketGate{
		lim:      rate.NewLimiter(rate.Every(window/time.Duration(capacity)), capacity),
		capacity: capacity,
		window:   window,
		logger:   o.logger.With().Str("component", "token_bucket_gate").Logger(),
		metrics:  o.metrics,
	}
	g.metrics.setAvailable(capacity)
	return g, nil
}

func (g *TokenBucketGate) Capacity() int         { return g.capacity }
func (g *TokenBucketGate) Window() time.Duration { return g.window }

// Available retorna os tokens inteiros disponíveis agora.
func (g *TokenBucketGate) Available() int {
	if g.lim.Limit() == 0 {
		return g.lim.Burst()
	}
	n := int(g.lim.Tokens())
	if n < 0 {
		return 0
	}
	return n
}

// NextRefill estima quando o próximo token fica disponível.
func (g *TokenBucketGate) NextRefill() time.Time {
	limit := g.lim.Limit()
	if limit == 0 {
		return time.Time{}
	}
	now := time.Now()
	tokens := g.lim.TokensAt(now)
	if tokens >= 1 {
		return now
	}
	deficit := 1 - tokens
	return now.Add(time.Duration(deficit / float64(limit) * float64(time.Second)))
}

func (g *TokenBucketGate) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		g.metrics.observeAcquire(resultCancelled, 0)
		return cancelled(err)
	}

	start := time.Now()
	err := g.lim.Wait(ctx)
	if err == nil {
		g.metrics.observeAcquire(resultAcquired, time.Since(start))
		g.metrics.setAvailable(g.Available())
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		g.metrics.observeAcquire(resultCancelled, time.Since(start))
		return cancelled(ctxErr)
	}

	// Wait falha sem esperar quando o token nunca chegaria a tempo (deadline
	// curto) ou nunca chegaria (após Shutdown, sem tokens). Nos dois casos o
	// chamador fica bloqueado até o ctx encerrar, como no RateGate.
	<-ctx.Done()
	g.metrics.observeAcquire(resultCancelled, time.Since(start))
	return cancelled(ctx.Err())
}

func (g *TokenBucketGate) TryAcquire() bool {
	if g.lim.Allow() {
		g.metrics.observeAcquire(resultAcquired, 0)
		g.metrics.setAvailable(g.Available())
		return true
	}
	g.metrics.observeAcquire(resultRejected, 0)
	return false
}

// Shutdown congela o bucket: os tokens inteiros restantes continuam
// disponíveis e nenhum outro é gerado.
func (g *TokenBucketGate) Shutdown() {
	g.stopOnce.Do(func() {
		now := time.Now()
		remaining := int(g.lim.TokensAt(now))
		if remaining < 0 {
			remaining = 0
		}
		// com limit 0 o x/time/rate passa a tratar burst como contador decrescente
		g.lim.SetLimitAt(now, 0)
		g.lim.SetBurstAt(now, remaining)
		g.logger.Info().Int("available", remaining).Msg("token bucket gate stopped")
	})
}
