package infra

import (
	"fmt"
	"strings"
	"time"

	"document-submitter/middleware/ratelimit/domain"
)

const (
	// PolicyReset volta o pool à capacidade total a cada janela (padrão).
	PolicyReset = "reset"
	// PolicyTokenBucket repõe tokens continuamente (x/time/rate).
	PolicyTokenBucket = "token-bucket"
)

// NewGate cria o gate da política pedida. Política vazia = PolicyReset.
func NewGate(policy string, capacity int, window time.Duration, opts ...GateOption) (domain.PermitGate, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", PolicyReset:
		return NewRateGate(capacity, window, opts...)
	case PolicyTokenBucket:
		return NewTokenBucketGate(capacity, window, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown gate policy %q", domain.ErrInvalidConfiguration, policy)
	}
}
