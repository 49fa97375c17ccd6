// Package server exposes the webhook endpoint the Telegram platform calls.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mymmrac/telego"

	"github.com/ngx29/BotTelegram/pkg/config"
	"github.com/ngx29/BotTelegram/pkg/logger"
)

const (
	livenessBody    = "Bot Telegram - Webhook activo."
	ackBody         = "OK"
	shutdownTimeout = 5 * time.Second
)

// UpdateHandler consumes one decoded Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update telego.Update)
}

type Server struct {
	cfg        config.WebhookConfig
	dispatcher UpdateHandler
	httpServer *http.Server
}

func NewServer(cfg config.WebhookConfig, dispatcher UpdateHandler) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
	}
}

// Run serves until ctx is canceled, then drains in-flight requests. The
// returned error is nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}

	logger.InfoCF("server", "Starting HTTP server", map[string]interface{}{
		"addr":          addr,
		"secret_routed": s.cfg.Secret != "",
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.InfoC("server", "Stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("POST /webhook/{secret}", s.handleSecretWebhook)
	return s.withRecovery(mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(livenessBody))
}

// handleWebhook serves the bare path, which only exists while no secret is
// configured.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Secret != "" {
		http.NotFound(w, r)
		return
	}
	s.processUpdate(w, r)
}

func (s *Server) handleSecretWebhook(w http.ResponseWriter, r *http.Request) {
	segment := r.PathValue("secret")
	if s.cfg.Secret == "" || subtle.ConstantTimeCompare([]byte(segment), []byte(s.cfg.Secret)) != 1 {
		logger.WarnCF("server", "Webhook secret rejected", map[string]interface{}{
			"remote": r.RemoteAddr,
		})
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	s.processUpdate(w, r)
}

// processUpdate decodes and dispatches one update. Every accepted request is
// acknowledged with 200 regardless of outcome so the platform never queues
// retries for payloads we cannot act on.
func (s *Server) processUpdate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var update telego.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		logger.WarnCF("server", "Undecodable update payload", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		s.ack(w)
		return
	}
	if update.Message == nil {
		s.ack(w)
		return
	}

	s.dispatcher.HandleUpdate(r.Context(), update)
	s.ack(w)
}

func (s *Server) ack(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ackBody))
}

func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorCF("server", "Handler panic recovered", map[string]interface{}{
					"panic":          fmt.Sprintf("%v", rec),
					logger.FieldPath: r.URL.Path,
				})
				s.ack(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
