package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"document-submitter/middleware/ratelimit/application"
	"document-submitter/middleware/ratelimit/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Client admite cada envio no gate antes de chamar o Sender.
// Não faz retry: o erro do Sender volta como veio.
type Client struct {
	sender    Sender
	admission application.AdmissionService
	logger    zerolog.Logger
}

type ClientOption func(*Client)

func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
		c.admission.Logger = l
	}
}

// WithStats registra cada admissão (best-effort).
func WithStats(s domain.StatsStore) ClientOption {
	return func(c *Client) { c.admission.Stats = s }
}

// WithAcquireTimeout limita a espera por permissão. 0 espera até o ctx encerrar.
func WithAcquireTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.admission.AcquireTimeout = d }
}

type endpointer interface {
	Endpoint() *url.URL
}

func NewClient(gate domain.PermitGate, sender Sender, opts ...ClientOption) *Client {
	c := &Client{
		sender: sender,
		admission: application.AdmissionService{
			Gate:   gate,
			Method: http.MethodPost,
			Logger: zerolog.Nop(),
		},
		logger: zerolog.Nop(),
	}
	if e, ok := sender.(endpointer); ok {
		u := e.Endpoint()
		c.admission.Key = domain.Key(u.Host)
		c.admission.Path = u.Path
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit espera uma permissão e envia o payload. Em cancelamento o Sender não é chamado.
func (c *Client) Submit(ctx context.Context, payload []byte) error {
	log := c.logger.With().Str("submission_id", uuid.NewString()).Logger()

	if err := c.admission.Admit(ctx); err != nil {
		log.Debug().Err(err).Msg("submission not admitted")
		return err
	}
	if err := c.sender.Send(ctx, payload); err != nil {
		log.Warn().Err(err).Msg("submission failed")
		return err
	}
	log.Info().Int("bytes", len(payload)).Msg("submission sent")
	return nil
}

// CreateDocument serializa o documento e envia via Submit.
func (c *Client) CreateDocument(ctx context.Context, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %q: %w", doc.DocID, err)
	}
	return c.Submit(ctx, payload)
}

// SubmitAll envia os documentos com até `workers` envios simultâneos, todos
// passando pelo mesmo gate. Falhas não interrompem os demais; os erros voltam juntos.
func (c *Client) SubmitAll(ctx context.Context, docs []Document, workers int) error {
	if workers <= 0 {
		workers = 1
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(workers)
	for i, doc := range docs {
		i, doc := i, doc // cópia por iteração (semântica de loop do go >= 1.22)
		p.Go(func(ctx context.Context) error {
			if err := c.CreateDocument(ctx, doc); err != nil {
				return fmt.Errorf("document #%d (%s): %w", i, doc.DocID, err)
			}
			return nil
		})
	}
	return p.Wait()
}
