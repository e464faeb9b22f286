package domain

import (
	"context"
	"time"
)

// StatsEvent representa um evento de admissão no gate.
//
// Method/Path são strings genéricas; para o cliente de submissão são
// preenchidos com o método e o caminho do endpoint remoto.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key/Path sem controle pode
// explodir o número de séries/chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Key     Key
	Allowed bool

	Method string
	Path   string

	// Wait é quanto tempo o chamador ficou bloqueado esperando a permissão.
	Wait time.Duration

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de admissão.
//
// Implementações podem armazenar em Redis, memória, etc.
// Quem chama deve tratar erro como best-effort (não derrubar a submissão).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
