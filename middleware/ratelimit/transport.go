package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"document-submitter/middleware/ratelimit/application"
	"document-submitter/middleware/ratelimit/domain"

	"github.com/rs/zerolog"
)

// KeyFunc extrai a chave de estatística de uma requisição de saída.
type KeyFunc func(r *http.Request) string

type Options struct {
	Gate           domain.PermitGate
	Stats          domain.StatsStore
	KeyFn          KeyFunc
	AcquireTimeout time.Duration
	// Logger zero value não escreve nada.
	Logger zerolog.Logger
}

// DefaultKeyFunc usa o host de destino.
func DefaultKeyFunc(r *http.Request) string {
	if r.URL != nil {
		if h := strings.TrimSpace(r.URL.Host); h != "" {
			return h
		}
	}
	if r.Host != "" {
		return r.Host
	}
	return "unknown"
}

// Transport é um http.RoundTripper que só deixa a requisição sair depois de
// obter uma permissão do gate. Sem permissão (timeout/cancelamento) a base não
// é chamada e o erro casa com domain.ErrCancelled.
type Transport struct {
	Base http.RoundTripper
	opts Options
}

func NewTransport(base http.RoundTripper, opts Options) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc
	}
	return &Transport{Base: base, opts: opts}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	logger := t.opts.Logger
	key := t.opts.KeyFn(r)
	svc := application.AdmissionService{
		Gate:           t.opts.Gate,
		AcquireTimeout: t.opts.AcquireTimeout,
		Stats:          t.opts.Stats,
		Logger:         logger,
		Key:            domain.Key(key),
		Method:         r.Method,
	}
	if r.URL != nil {
		svc.Path = r.URL.Path
	}

	if err := svc.Admit(r.Context()); err != nil {
		logger.Debug().Err(err).Str("key", key).Str("method", r.Method).Msg("outbound request not admitted")
		// contrato do RoundTripper: o body é fechado mesmo em erro
		if r.Body != nil {
			_ = r.Body.Close()
		}
		return nil, err
	}
	return t.Base.RoundTrip(r)
}
