package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"document-submitter/submission"

	"github.com/rs/zerolog"
)

// Endpoint falso de criação de documentos para testes manuais do submitter.
//
//	LISTEN_ADDR (padrão :8081)
//	FAIL_EVERY  responde 500 a cada n-ésima chamada (0 desliga)
func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}
	failEvery, _ := strconv.Atoi(os.Getenv("FAIL_EVERY"))

	var calls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v3/lk/documents/create", func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)

		var doc submission.Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			logger.Warn().Err(err).Int64("call", n).Msg("invalid document")
			http.Error(w, "invalid document", http.StatusBadRequest)
			return
		}
		if failEvery > 0 && n%int64(failEvery) == 0 {
			logger.Warn().Int64("call", n).Str("doc_id", doc.DocID).Msg("simulated failure")
			http.Error(w, "simulated failure", http.StatusInternalServerError)
			return
		}

		logger.Info().Int64("call", n).Str("doc_id", doc.DocID).Int("products", len(doc.Products)).Msg("document received")
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("mock endpoint listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}
