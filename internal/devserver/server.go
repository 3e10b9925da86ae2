// Package devserver is a small in-memory implementation of the notes and
// users API for local development.
package devserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/marcus/scribe/internal/directory"
	"github.com/marcus/scribe/internal/notes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures a Server.
type Options struct {
	Users []directory.User
	// RPS limits requests per second across all clients. Zero disables
	// limiting.
	RPS float64
	// FailUsers makes GET /users answer 500.
	FailUsers bool
}

// Server serves /users and /{session}/notes.
type Server struct {
	Log *zap.Logger

	users     []directory.User
	failUsers bool
	limiter   *rate.Limiter
	store     *memStore
}

// New creates a server. A nil logger is replaced with a no-op logger.
func New(opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		Log:       logger,
		users:     opts.Users,
		failUsers: opts.FailUsers,
		store:     newMemStore(),
	}
	if s.users == nil {
		s.users = SampleUsers
	}
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return s
}

// Routes returns the HTTP handler.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.rateLimit)

	r.Get("/users", s.serveUsers)
	r.Route("/{session}/notes", func(r chi.Router) {
		r.Get("/", s.listNotes)
		r.Post("/", s.createNote)
		r.Get("/{id}", s.getNote)
		r.Put("/{id}", s.putNote)
	})
	return r
}

func (s *Server) serveUsers(w http.ResponseWriter, r *http.Request) {
	if s.failUsers {
		http.Error(w, "users unavailable", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, s.users)
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.list(chi.URLParam(r, "session")))
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.get(chi.URLParam(r, "session"), chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	e := s.store.create(chi.URLParam(r, "session"), body)
	s.Log.Debug("note created", zap.String("id", e.ID))
	s.writeJSON(w, http.StatusCreated, e)
}

func (s *Server) putNote(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	e, found := s.store.put(chi.URLParam(r, "session"), chi.URLParam(r, "id"), body)
	if !found {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

// readBody decodes an envelope and checks that its body is a valid note.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	var in notes.Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&in); err != nil {
		s.Log.Warn("bad request body", zap.Error(err))
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return "", false
	}
	if _, err := notes.DecodeEnvelope(in); err != nil {
		s.Log.Warn("bad note body", zap.Error(err))
		http.Error(w, "body must be an encoded note", http.StatusBadRequest)
		return "", false
	}
	return in.Body, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Error("write response", zap.Error(err))
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
