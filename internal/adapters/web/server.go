package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"storefront/internal/basket"
	"storefront/internal/flow"
	"storefront/internal/journal"
	"storefront/internal/observability"
	"storefront/internal/order"
	"storefront/internal/realtime"
	"storefront/internal/session"
)

// CatalogProvider serves catalog snapshots to controllers and accepts
// reload requests.
type CatalogProvider interface {
	flow.CatalogSource
	Load(ctx context.Context) error
}

// Config wires a Server. Registry, Catalog and Submitter are required.
type Config struct {
	Registry  *session.Registry
	Catalog   CatalogProvider
	Submitter order.Submitter

	// Journal, when set, records placed orders for every session.
	Journal journal.Recorder

	Metrics *observability.Metrics
	Limiter *RateLimiter
	Logf    func(format string, args ...any)
}

// Server exposes the storefront session API over HTTP: session
// lifecycle, intent dispatch and the per-session event stream.
type Server struct {
	registry  *session.Registry
	catalog   CatalogProvider
	submitter order.Submitter
	journal   journal.Recorder
	metrics   *observability.Metrics
	limiter   *RateLimiter
	logf      func(format string, args ...any)

	upgrader websocket.Upgrader
}

// NewServer constructs a Server.
func NewServer(cfg Config) *Server {
	logf := cfg.Logf
	if logf == nil {
		logf = log.Printf
	}
	return &Server{
		registry:  cfg.Registry,
		catalog:   cfg.Catalog,
		submitter: cfg.Submitter,
		journal:   cfg.Journal,
		metrics:   cfg.Metrics,
		limiter:   cfg.Limiter,
		logf:      logf,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "POST /session", s.handleCreateSession)
	s.route(mux, "DELETE /session/{id}", s.handleRemoveSession)
	s.route(mux, "POST /session/{id}/intent", s.handleIntent)
	s.route(mux, "POST /catalog/reload", s.handleCatalogReload)
	// The event stream upgrades the connection, so it needs the raw
	// ResponseWriter and is not wrapped for metrics.
	mux.HandleFunc("GET /session/{id}/events", s.handleEvents)
	return mux
}

// route registers the handler wrapped with rate limiting and metrics.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		span := s.metrics.Start(pattern)
		if err := s.limiter.Wait(r.Context()); err != nil {
			span.End(err)
			writeError(w, http.StatusServiceUnavailable, "server busy")
			return
		}
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		var err error
		if sw.status >= http.StatusInternalServerError {
			err = fmt.Errorf("status %d", sw.status)
		}
		span.End(err)
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.registry.Create(func(id string, hub *realtime.Hub) (*flow.Controller, func()) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = hub.Run(ctx) }()

		controller := flow.NewController(flow.Config{
			Catalog:   s.catalog,
			Basket:    basket.NewStore(),
			Draft:     order.NewDraft(s.submitter),
			Presenter: newHubPresenter(hub, s.logf),
			Logf:      s.logf,
			// Placed orders go to storage first, then out to the session's
			// own event stream.
			Journal: journal.NewFanoutRecorder(s.journal, hub),
		})
		return controller, cancel
	})

	s.logf("session %s created", sess.ID)
	writeJSON(w, http.StatusCreated, struct {
		SessionID string      `json:"session_id"`
		Screen    flow.Screen `json:"screen"`
	}{SessionID: sess.ID, Screen: sess.Controller.Screen()})
}

func (s *Server) handleRemoveSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.registry.Get(id); !ok {
		writeError(w, http.StatusNotFound, session.ErrNotFound.Error())
		return
	}
	s.registry.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

// intentRequest carries one user intent. Fields beyond Intent are read
// only by the intents that need them.
type intentRequest struct {
	Intent    string `json:"intent"`
	ProductID string `json:"product_id,omitempty"`
	Address   string `json:"address,omitempty"`
	Payment   string `json:"payment,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type intentResponse struct {
	Screen flow.Screen `json:"screen"`
	View   any         `json:"view,omitempty"`
	Valid  *bool       `json:"valid,omitempty"`
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, session.ErrNotFound.Error())
		return
	}

	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid intent body")
		return
	}

	c := sess.Controller
	var (
		err   error
		valid *bool
	)
	switch req.Intent {
	case "show_catalog":
		c.ShowCatalog()
	case "open_product":
		err = c.OpenProduct(req.ProductID)
	case "toggle_basket":
		err = c.ToggleBasket()
	case "open_basket":
		c.OpenBasket()
	case "remove_item":
		err = c.RemoveFromBasket(req.ProductID)
	case "checkout":
		err = c.Checkout()
	case "submit_address":
		err = c.SubmitAddress(req.Address, req.Payment)
	case "update_email":
		v := c.UpdateEmail(req.Email)
		valid = &v
	case "update_phone":
		v := c.UpdatePhone(req.Phone)
		valid = &v
	case "pay":
		// The submission must outlive this request: the response settles
		// asynchronously through the session's event stream.
		err = c.Pay(context.WithoutCancel(r.Context()), req.Email, req.Phone)
	case "close_success":
		err = c.CloseSuccess()
	case "dismiss":
		c.Dismiss()
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown intent %q", req.Intent))
		return
	}

	if err != nil {
		writeError(w, statusForFlowError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, intentResponse{
		Screen: c.Screen(),
		View:   c.View(),
		Valid:  valid,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, session.ErrNotFound.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("websocket upgrade: %v", err)
		return
	}

	// The hub loop may already be gone when the session was removed
	// between the lookup and this point; never block on it.
	select {
	case sess.Hub.Register <- conn:
	case <-sess.Hub.Done():
		conn.Close()
		return
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			select {
			case sess.Hub.Unregister <- conn:
			case <-sess.Hub.Done():
				conn.Close()
			}
			return
		}
	}
}

func (s *Server) handleCatalogReload(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Load(r.Context()); err != nil {
		s.logf("catalog reload: %v", err)
		writeError(w, http.StatusBadGateway, "catalog source unavailable")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Products int `json:"products"`
	}{Products: s.catalog.Snapshot().Len()})
}

func statusForFlowError(err error) int {
	switch {
	case errors.Is(err, flow.ErrUnknownProduct):
		return http.StatusNotFound
	case errors.Is(err, flow.ErrWrongScreen):
		return http.StatusConflict
	case errors.Is(err, flow.ErrCheckoutUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, flow.ErrSubmissionInFlight):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

// statusWriter records the final status code for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
