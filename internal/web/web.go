package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"crmcal/internal/calendar"
	"crmcal/internal/config"
	"crmcal/internal/export"
	"crmcal/internal/ics"
	appLog "crmcal/internal/log"
	"crmcal/internal/model"
)

// ActorHeader names the acting user for mutations. Without it the
// configured current user is used.
const ActorHeader = "X-Actor"

// Server exposes the calendar engine over HTTP.
type Server struct {
	cfg    *config.Config
	engine *calendar.Engine
	router chi.Router
	now    func() time.Time
}

// NewServer constructs a Server and registers its routes.
func NewServer(cfg *config.Config, engine *calendar.Engine) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
		router: chi.NewRouter(),
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/calendar", s.handlePage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/calendar", s.handleCalendar)
		r.Post("/calendar", s.handleGoTo)
		r.Post("/calendar/prev", s.handleNavigate(s.engine.Prev))
		r.Post("/calendar/next", s.handleNavigate(s.engine.Next))
		r.Post("/calendar/today", s.handleNavigate(s.engine.Today))

		r.Get("/events", s.handleListEvents)
		r.Post("/events", s.handleCreateEvent)

		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.ics", s.handleExportICS)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCalendar returns the month under the cursor, or the month named by
// ?month=YYYY-MM. Reading never moves the cursor.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	view, err := s.viewFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "month")
		return
	}
	writeJSON(w, http.StatusOK, toMonthDTO(view))
}

// handleGoTo moves the cursor to ?month=YYYY-MM and returns that month.
func (s *Server) handleGoTo(w http.ResponseWriter, r *http.Request) {
	year, month, ok, err := monthParam(r)
	if err == nil && !ok {
		err = errors.New("month is required")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "month")
		return
	}
	writeJSON(w, http.StatusOK, toMonthDTO(s.engine.GoTo(year, month)))
}

func (s *Server) viewFor(r *http.Request) (calendar.MonthView, error) {
	year, month, ok, err := monthParam(r)
	if err != nil {
		return calendar.MonthView{}, err
	}
	if !ok {
		return s.engine.View(), nil
	}
	return s.engine.Month(year, month), nil
}

// monthParam reads ?month=YYYY-MM; ok is false when it is absent.
func monthParam(r *http.Request) (int, time.Month, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		return 0, 0, false, nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return 0, 0, false, fmt.Errorf("month must be YYYY-MM, got %q", raw)
	}
	return t.Year(), t.Month(), true, nil
}

func (s *Server) handleNavigate(step func() calendar.MonthView) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, toMonthDTO(step()))
	}
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	events := s.engine.Events()
	out := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventDTO(ev, s.engine.Location()))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateEvent runs the creation workflow. The request context bounds
// the artificial delay: a client that disconnects abandons the creation.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in calendar.CreateInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), "")
		return
	}

	actor := s.actorFrom(r)
	ev, err := s.engine.Create(r.Context(), actor, in)
	if err != nil {
		var ve *model.ValidationError
		switch {
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, ve.Error(), ve.Field)
		case errors.Is(err, calendar.ErrCanceled):
			appLog.Info("api events: creation abandoned by client", "actor", string(actor))
			writeError(w, http.StatusRequestTimeout, err.Error(), "")
		case errors.Is(err, model.ErrStore):
			appLog.Error("api events: store failure", err)
			writeError(w, http.StatusBadGateway, "event store unavailable", "")
		default:
			appLog.Error("api events: create failed", err)
			writeError(w, http.StatusInternalServerError, "failed to create event", "")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toEventDTO(ev, s.engine.Location()))
}

// handleExportCSV streams the events as a CSV download. With no events
// there is nothing to download and the response is 204.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := export.Bytes(export.EventRecords(s.engine.Events()))
	if err != nil {
		appLog.Error("api export: encode failed", err)
		writeError(w, http.StatusInternalServerError, "export failed", "")
		return
	}
	if len(data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	name := export.Filename(r.URL.Query().Get("filename"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleExportICS(w http.ResponseWriter, _ *http.Request) {
	doc := ics.Encode(s.engine.Events(), s.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar-events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func (s *Server) actorFrom(r *http.Request) model.Actor {
	if a := strings.TrimSpace(r.Header.Get(ActorHeader)); a != "" {
		return model.Actor(a)
	}
	return model.Actor(s.cfg.CurrentUser)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, field string) {
	type errResp struct {
		Error string `json:"error"`
		Field string `json:"field,omitempty"`
	}
	writeJSON(w, status, errResp{Error: msg, Field: field})
}
