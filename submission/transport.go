package submission

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultEndpoint é o endpoint de criação de documentos usado quando nada é configurado.
const DefaultEndpoint = "https://ismp.crpt.ru/api/v3/lk/documents/create"

// Sender entrega um payload já serializado ao serviço remoto.
type Sender interface {
	Send(ctx context.Context, payload []byte) error
}

type SenderFunc func(ctx context.Context, payload []byte) error

func (f SenderFunc) Send(ctx context.Context, payload []byte) error { return f(ctx, payload) }

// TransportError é qualquer falha do envio: erro de I/O (StatusCode 0) ou
// resposta com status diferente de 200.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("submission: unexpected status %d: %s", e.StatusCode, e.Body)
		}
		return fmt.Sprintf("submission: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("submission: request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

const maxErrorBody = 512

// HTTPSender faz POST do payload JSON para um endpoint fixo.
type HTTPSender struct {
	endpoint *url.URL
	client   *http.Client
	logger   zerolog.Logger
}

type HTTPSenderOption func(*HTTPSender)

func WithHTTPClient(c *http.Client) HTTPSenderOption {
	return func(s *HTTPSender) {
		if c != nil {
			s.client = c
		}
	}
}

func WithSenderLogger(l zerolog.Logger) HTTPSenderOption {
	return func(s *HTTPSender) { s.logger = l }
}

func NewHTTPSender(endpoint string, opts ...HTTPSenderOption) (*HTTPSender, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: want absolute http(s) URL", endpoint)
	}

	s := &HTTPSender{
		endpoint: u,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Endpoint retorna uma cópia da URL de destino.
func (s *HTTPSender) Endpoint() *url.URL {
	u := *s.endpoint
	return &u
}

func (s *HTTPSender) Send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	s.logger.Debug().Str("endpoint", s.endpoint.String()).Int("status", resp.StatusCode).Msg("document accepted")
	return nil
}
