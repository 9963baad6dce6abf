// Package api provides the HTTP surface for the accolade daemon: trigger
// ingestion, player queries, celebration introspection, administrative
// operations, and health.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenhouse-games/accolade/internal/app/celebration"
	"github.com/greenhouse-games/accolade/internal/app/events"
	"github.com/greenhouse-games/accolade/internal/app/progress"
	"github.com/greenhouse-games/accolade/internal/domain"
	"github.com/greenhouse-games/accolade/internal/health"
	"github.com/greenhouse-games/accolade/internal/infra/sqlite"
)

// Server is the accolade HTTP API server.
type Server struct {
	engine    *progress.Engine
	scheduler *celebration.Scheduler
	monitor   *health.Monitor
	source    *events.ChannelSource
	history   *sqlite.DB // optional; nil disables history endpoints

	metricsEnabled bool
}

// NewServer creates an API server over the engine and its collaborators.
func NewServer(engine *progress.Engine, scheduler *celebration.Scheduler, monitor *health.Monitor, source *events.ChannelSource) *Server {
	return &Server{
		engine:    engine,
		scheduler: scheduler,
		monitor:   monitor,
		source:    source,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHistory attaches the durable history store for audit queries.
func (s *Server) SetHistory(db *sqlite.DB) { s.history = db }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/triggers", s.handleTrigger)
		r.Get("/accomplishments", s.handleAccomplishments)
		r.Get("/accomplishments/{id}", s.handleAccomplishment)
		r.Get("/players/{player}/stats", s.handleStats)
		r.Get("/players/{player}/progress", s.handleProgress)
		r.Get("/players/{player}/unlocks", s.handleUnlocks)
		r.Get("/players/{player}/mastery", s.handleMastery)
		r.Get("/players/{player}/streak", s.handleStreak)
		r.Get("/players/{player}/meta-rules", s.handleMetaRules)
		r.Get("/players/{player}/history", s.handleHistory)
		r.Get("/celebrations", s.handleCelebrations)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/players/{player}/recheck", s.handleRecheck)
			r.Post("/players/{player}/streak/reset", s.handleStreakReset)
			r.Post("/celebrations/clear", s.handleCelebrationsClear)
			r.Post("/celebrations/config", s.handleCelebrationsConfig)
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Trigger Ingestion ──────────────────────────────────────────────────────

type triggerRequest struct {
	Key      string  `json:"key"`
	Value    float64 `json:"value"`
	PlayerID string  `json:"player_id"`
}

// handleTrigger pushes a trigger event into the engine's event source.
// Accepted events are processed asynchronously; a full source buffer is
// reported as backpressure, never a blocking wait.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Key == "" || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "key and player_id are required")
		return
	}

	ok := s.source.Push(domain.TriggerEvent{
		Key:      req.Key,
		Value:    req.Value,
		PlayerID: req.PlayerID,
	})
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "event source saturated")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ─── Queries ────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.monitor.Snapshot()
	status := http.StatusOK
	if !snap.AllHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, snap)
}

type accomplishmentView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Rarity      string  `json:"rarity"`
	Points      int     `json:"points"`
	TargetValue float64 `json:"target_value"`
	IsMilestone bool    `json:"is_milestone"`
}

// handleAccomplishments lists the catalog. Secret accomplishments are
// hidden until unlocked; pass ?player= to include that player's unlocked
// secrets.
func (s *Server) handleAccomplishments(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	unlocked := map[string]bool{}
	if playerID != "" {
		for _, ev := range s.engine.Unlocks(playerID) {
			unlocked[ev.AccomplishmentID] = true
		}
	}

	var views []accomplishmentView
	for _, def := range s.engine.Definitions() {
		if def.IsSecret && !unlocked[def.ID] {
			continue
		}
		views = append(views, accomplishmentView{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Category:    string(def.Category),
			Rarity:      def.Rarity.String(),
			Points:      def.Points,
			TargetValue: def.TargetValue,
			IsMilestone: def.IsMilestone,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// handleAccomplishment serves one catalog entry. Secret entries are served
// too; callers hitting this endpoint already know the id.
func (s *Server) handleAccomplishment(w http.ResponseWriter, r *http.Request) {
	def, ok := s.engine.Definition(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrUnknownAccomplishment.Error())
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player")
	writeJSON(w, http.StatusOK, s.engine.Stats(playerID))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player")
	writeJSON(w, http.StatusOK, s.engine.Progress(playerID))
}

func (s *Server) handleUnlocks(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player")
	writeJSON(w, http.StatusOK, s.engine.Unlocks(playerID))
}

func (s *Server) handleMastery(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player")
	writeJSON(w, http.StatusOK, s.engine.Mastery(playerID))
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player")
	state, ok := s.engine.Streak(playerID)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrUnknownPlayer.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleMetaRules(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player")
	writeJSON(w, http.StatusOK, s.engine.MetaRuleStates(playerID))
}

// handleHistory serves the durable unlock history. 501 when the daemon
// runs without a store.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "history store disabled")
		return
	}
	playerID := chi.URLParam(r, "player")
	events, err := s.history.ListUnlocks(playerID, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleCelebrations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pending": s.scheduler.Pending(),
		"active":  s.scheduler.Active(),
		"recent":  s.scheduler.Recent(),
	})
}

// ─── Administrative Operations ──────────────────────────────────────────────

func (s *Server) handleRecheck(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player")
	s.engine.ForceMetaRecheck(playerID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "rechecked"})
}

func (s *Server) handleStreakReset(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player")
	s.engine.ResetStreak(playerID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleCelebrationsClear(w http.ResponseWriter, r *http.Request) {
	n := s.scheduler.Clear()
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

type celebrationConfigRequest struct {
	Enabled          *bool    `json:"enabled,omitempty"`
	PriorityEviction *bool    `json:"priority_eviction,omitempty"`
	DurationScale    *float64 `json:"duration_scale,omitempty"`
}

// handleCelebrationsConfig updates feature toggles and durations at
// runtime. Only fields present in the request change.
func (s *Server) handleCelebrationsConfig(w http.ResponseWriter, r *http.Request) {
	var req celebrationConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Enabled != nil {
		s.scheduler.SetEnabled(*req.Enabled)
	}
	if req.PriorityEviction != nil {
		s.scheduler.SetPriorityEviction(*req.PriorityEviction)
	}
	if req.DurationScale != nil {
		if *req.DurationScale <= 0 {
			writeError(w, http.StatusBadRequest, "duration_scale must be positive")
			return
		}
		s.scheduler.SetDurationScale(*req.DurationScale)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
