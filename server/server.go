package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/AndreyBeserra/Helppybot/lib/tracer"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	WebhookPath  = "/telegram/webhook"
	HealthPath   = "/healthz"
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	maxUpdateSize = 1 << 20
)

type UpdateProcessor interface {
	ProcessUpdate(u tele.Update)
}

type Server struct {
	log       *zap.Logger
	processor UpdateProcessor
	secret    string
	router    chi.Router
}

// New builds the HTTP surface. processor may be nil when the bot polls, then
// only the health endpoint is served.
func New(log *zap.Logger, processor UpdateProcessor, secret string) *Server {
	s := &Server{log: log, processor: processor, secret: secret}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Get(HealthPath, s.health)
	if processor != nil {
		r.With(chimw.AllowContentType("application/json")).Post(WebhookPath, s.webhook)
	}
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) webhook(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Open(r.Context(), tracer.Named("Webhook"))
	defer span.Close()

	log := s.log.With(zap.String("request_id", chimw.GetReqID(r.Context())))
	if s.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(s.secret)) != 1 {
		log.Warn("Webhook call with wrong secret", zap.String("remote", r.RemoteAddr))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var update tele.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateSize)).Decode(&update); err != nil {
		log.Error("Cannot decode update", zap.Error(err))
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	log.Debug("Update received", zap.Int("update_id", update.ID))
	s.processor.ProcessUpdate(update)
	w.WriteHeader(http.StatusOK)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("HTTP server stopped")
	return nil
}
