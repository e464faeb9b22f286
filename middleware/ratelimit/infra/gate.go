package infra

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"document-submitter/middleware/ratelimit/domain"

	"github.com/rs/zerolog"
)

// RateGate é um pool de `capacity` permissões baseado em channel.
//
// Uma goroutine própria reabastece o pool a cada `window`, voltando sempre à
// capacidade total (reset-to-full), independente de quantas foram consumidas.
// O channel é o único estado compartilhado: len(permits) nunca passa de
// capacity nem fica negativo.
type RateGate struct {
	capacity int
	window   time.Duration
	permits  chan struct{}

	nextRefill atomic.Int64 // unix nano; 0 após Shutdown
	refills    atomic.Uint64

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	logger  zerolog.Logger
	metrics *Metrics
}

// NewRateGate cria o gate cheio e agenda o primeiro reabastecimento para daqui a `window`.
func NewRateGate(capacity int, window time.Duration, opts ...GateOption) (*RateGate, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0, got %d", domain.ErrInvalidConfiguration, capacity)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be > 0, got %s", domain.ErrInvalidConfiguration, window)
	}

	o := newGateOptions(opts)
	g := &RateGate{
		capacity: capacity,
		window:   window,
		permits:  make(chan struct{}, capacity),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   o.logger.With().Str("component", "rate_gate").Logger(),
		metrics:  o.metrics,
	}
	g.fill()
	g.metrics.setAvailable(len(g.permits))

	t := time.NewTicker(window)
	g.nextRefill.Store(time.Now().Add(window).UnixNano())
	go g.run(t)

	g.logger.Debug().Int("capacity", capacity).Dur("window", window).Msg("rate gate started")
	return g, nil
}

func (g *RateGate) Capacity() int         { return g.capacity }
func (g *RateGate) Window() time.Duration { return g.window }
func (g *RateGate) Available() int        { return len(g.permits) }
func (g *RateGate) Refills() uint64       { return g.refills.Load() }

// NextRefill retorna o horário previsto do próximo reabastecimento.
// Após Shutdown retorna o zero value.
func (g *RateGate) NextRefill() time.Time {
	ns := g.nextRefill.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Acquire bloqueia até obter uma permissão ou até o ctx encerrar.
// Em cancelamento nenhuma permissão é consumida.
func (g *RateGate) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		g.metrics.observeAcquire(resultCancelled, 0)
		return cancelled(err)
	}

	start := time.Now()
	select {
	case <-g.permits:
		g.admitted(start)
		return nil
	default:
	}

	select {
	case <-g.permits:
		g.admitted(start)
		return nil
	case <-ctx.Done():
		g.metrics.observeAcquire(resultCancelled, time.Since(start))
		return cancelled(ctx.Err())
	}
}

// TryAcquire consome uma permissão se houver, sem bloquear.
func (g *RateGate) TryAcquire() bool {
	select {
	case <-g.permits:
		g.admitted(time.Now())
		return true
	default:
		g.metrics.observeAcquire(resultRejected, 0)
		return false
	}
}

// Shutdown para a goroutine de reabastecimento e espera ela sair.
// Permissões restantes continuam disponíveis, mas nunca mais são repostas.
func (g *RateGate) Shutdown() {
	g.stopOnce.Do(func() {
		close(g.stop)
		<-g.done
		g.nextRefill.Store(0)
		g.logger.Info().Int("available", len(g.permits)).Uint64("refills", g.refills.Load()).Msg("rate gate stopped")
	})
}

func (g *RateGate) admitted(start time.Time) {
	g.metrics.observeAcquire(resultAcquired, time.Since(start))
	g.metrics.setAvailable(len(g.permits))
}

func (g *RateGate) run(t *time.Ticker) {
	defer close(g.done)
	defer t.Stop()
	for {
		select {
		case <-g.stop:
			return
		case now := <-t.C:
			added := g.fill()
			g.nextRefill.Store(now.Add(g.window).UnixNano())
			g.refills.Add(1)
			g.metrics.refilled(len(g.permits))
			g.logger.Debug().Int("added", added).Int("available", len(g.permits)).Msg("permits refilled")
		}
	}
}

// fill completa o pool até a capacidade. Faz no máximo `capacity` envios não
// bloqueantes; envios com chamadores esperando vão direto para eles.
func (g *RateGate) fill() int {
	added := 0
	for i := 0; i < g.capacity; i++ {
		select {
		case g.permits <- struct{}{}:
			added++
		default:
			return added
		}
	}
	return added
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", domain.ErrCancelled, cause)
}
