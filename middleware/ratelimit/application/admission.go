package application

import (
	"context"
	"errors"
	"time"

	"document-submitter/middleware/ratelimit/domain"

	"github.com/rs/zerolog"
)

// AdmissionService concentra a regra de admissão (espera por permissão com
// timeout opcional + registro de estatística), sem saber nada sobre HTTP.
type AdmissionService struct {
	Gate           domain.PermitGate
	AcquireTimeout time.Duration
	Stats          domain.StatsStore
	Logger         zerolog.Logger

	// Key, Method e Path identificam o destino nas estatísticas.
	Key    domain.Key
	Method string
	Path   string
}

// Admit espera uma permissão.
// - Se `AcquireTimeout <= 0`, espera indefinidamente (até ctx cancelar).
// - Se `AcquireTimeout > 0`, espera até o timeout.
// Retorna erro que casa com domain.ErrCancelled quando nenhuma permissão foi obtida.
func (s AdmissionService) Admit(ctx context.Context) error {
	if s.Gate == nil {
		return nil
	}

	acqCtx := ctx
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	start := time.Now()
	err := s.Gate.Acquire(acqCtx)
	s.record(ctx, err == nil, time.Since(start))
	if err != nil && !errors.Is(err, domain.ErrCancelled) {
		// gates só falham por cancelamento; qualquer outra coisa também bloqueia a chamada
		return errors.Join(domain.ErrCancelled, err)
	}
	return err
}

func (s AdmissionService) record(ctx context.Context, allowed bool, wait time.Duration) {
	if s.Stats == nil {
		return
	}
	ev := domain.StatsEvent{
		Key:     s.Key,
		Allowed: allowed,
		Method:  s.Method,
		Path:    s.Path,
		Wait:    wait,
		At:      time.Now(),
	}
	// ctx do chamador pode já estar cancelado; a estatística não deve se perder por isso
	if err := s.Stats.Record(context.WithoutCancel(ctx), ev); err != nil {
		s.Logger.Warn().Err(err).Msg("stats record failed")
	}
}
