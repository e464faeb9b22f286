// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - RateGate: pool de permissões em channel, reabastecido por completo a cada janela
//   - TokenBucketGate: política alternativa usando golang.org/x/time/rate
//   - MemoryStatsStore / RedisStatsStore: estatísticas de admissão
//   - Metrics: coletores Prometheus do gate
package infra
