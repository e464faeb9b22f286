package application

import (
	"context"
	"time"

	"document-submitter/middleware/ratelimit/domain"
)

// Decide tenta uma admissão sem bloquear.
//
// Quando bloqueado e o gate sabe quando reabastece, RetryAfter é o tempo até lá.
func (s AdmissionService) Decide() domain.Decision {
	if s.Gate == nil {
		return domain.Decision{Allowed: true}
	}
	if s.Gate.TryAcquire() {
		s.record(context.Background(), true, 0)
		return domain.Decision{Allowed: true}
	}
	s.record(context.Background(), false, 0)

	dec := domain.Decision{Allowed: false}
	if rs, ok := s.Gate.(domain.RefillScheduler); ok {
		if next := rs.NextRefill(); !next.IsZero() {
			if d := time.Until(next); d > 0 {
				dec.RetryAfter = d
			}
		}
	}
	return dec
}
