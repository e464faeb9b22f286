package domain

import (
	"context"
	"errors"
)

var (
	// ErrInvalidConfiguration é retornado na construção quando capacidade ou janela não são positivas.
	ErrInvalidConfiguration = errors.New("ratelimit: invalid configuration")

	// ErrCancelled indica que o contexto encerrou antes de obter uma permissão.
	// Nenhuma permissão é consumida nesse caso.
	ErrCancelled = errors.New("ratelimit: acquire cancelled")
)

// PermitGate representa um pool de permissões reabastecido periodicamente.
//
// Acquire bloqueia até conseguir uma permissão ou até o ctx encerrar.
// Permissões não são devolvidas pelo chamador: só o reabastecimento as repõe.
type PermitGate interface {
	Acquire(ctx context.Context) error
	TryAcquire() bool
	Shutdown()
}
