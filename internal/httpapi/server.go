package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"activation_fulfiller/internal/apperr"
	"activation_fulfiller/internal/config"
	"activation_fulfiller/internal/logbus"
	"activation_fulfiller/internal/model"
	"activation_fulfiller/internal/notify"
	"activation_fulfiller/internal/ws"
)

// OrderHandler runs the fulfillment workflow for one request.
type OrderHandler interface {
	Handle(ctx context.Context, req model.FulfillmentRequest) (model.Result, error)
}

type Options struct {
	Cfg       config.Config
	Bus       *logbus.Bus
	Orders    OrderHandler
	Transport notify.Transport
	Sender    model.MailSender
}

type Server struct {
	cfg       config.Config
	bus       *logbus.Bus
	orders    OrderHandler
	transport notify.Transport
	sender    model.MailSender
	ws        *ws.Handler
}

func New(opts Options) *Server {
	return &Server{
		cfg:       opts.Cfg,
		bus:       opts.Bus,
		orders:    opts.Orders,
		transport: opts.Transport,
		sender:    opts.Sender,
		ws:        ws.NewHandler(opts.Bus, opts.Cfg.Server.Cors.AllowOrigins),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	// preflight requests never reach a route, so CORS has to wrap the whole router
	r.Use(corsMiddleware(s.cfg.Server.Cors))

	r.Get("/health", s.handleHealth)
	r.Handle("/ws", s.ws)

	r.Post("/fulfill-order", s.handleFulfillOrder)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/fulfillments", s.handleFulfillOrder)
		r.Post("/notifications/test", s.handleNotificationTest)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleFulfillOrder(w http.ResponseWriter, r *http.Request) {
	var body model.FulfillmentRequest
	if err := readJSON(w, r, &body); err != nil {
		writeError(w, apperr.Validation(err.Error(), nil))
		return
	}

	res, err := s.orders.Handle(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order fulfilled and email sent.",
		"data":    res,
	})
}

type notificationTestPayload struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// handleNotificationTest sends a sample activation email with the configured sender.
func (s *Server) handleNotificationTest(w http.ResponseWriter, r *http.Request) {
	var body notificationTestPayload
	if err := readJSON(w, r, &body); err != nil {
		writeError(w, apperr.Validation(err.Error(), nil))
		return
	}
	to := strings.TrimSpace(body.Email)
	if to == "" {
		writeError(w, apperr.Validation("email is required", map[string]string{"email": "email is a required field"}))
		return
	}
	if s.transport == nil || !s.sender.Complete() {
		writeError(w, apperr.Configuration("email configuration not set"))
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = model.DefaultCustomerName
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Mail.Timeout())
	defer cancel()

	payload := notify.Compose(name, []model.ActivationItem{
		{Product: "Test Product", ActivationCode: "TEST-" + time.Now().Format("20060102-150405")},
	})
	if err := s.transport.Send(ctx, s.sender, to, payload); err != nil {
		if s.bus != nil {
			s.bus.Log("warn", "test email failed", map[string]any{"to": to, "error": err.Error()})
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if s.bus == nil || r.URL.Path == "/health" {
			return
		}
		s.bus.Log("debug", "http access", map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"reqId":      middleware.GetReqID(r.Context()),
		})
	})
}
