package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

type Key string

// Decision é o resultado de uma tentativa não bloqueante de admissão.
type Decision struct {
	Allowed bool
	// RetryAfter é o tempo estimado até o próximo reabastecimento quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// RefillScheduler é implementado por gates que sabem quando será o próximo reabastecimento.
type RefillScheduler interface {
	NextRefill() time.Time
}
