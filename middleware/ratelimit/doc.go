// Package ratelimit fornece o adapter HTTP (net/http) do gate de permissões para
// chamadas de saída.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (admissão bloqueante/não bloqueante, timeout, estatística)
//   - infra: implementações concretas (RateGate, token bucket, stats, métricas)
//   - ratelimit (este pacote): http.RoundTripper que admite cada requisição no gate
//
// Fluxo:
//
//  1. Extrai a chave do destino (host)
//  2. Chama a camada application para esperar uma permissão
//  3. Sem permissão, devolve o erro de cancelamento sem tocar a rede
//  4. Com permissão, delega para o transport base
//
// O cliente de documentos (pacote submission) usa a camada application
// diretamente; este adapter serve quem prefere limitar no nível do http.Client.
package ratelimit
