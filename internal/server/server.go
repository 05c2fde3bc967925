// Package server exposes the architecting problem over HTTP: the
// design-variable specification, the scoring operation, and background
// optimization runs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/archlab/turbarch/internal/catalog"
	"github.com/archlab/turbarch/internal/config"
	"github.com/archlab/turbarch/internal/design"
	"github.com/archlab/turbarch/internal/driver"
	"github.com/archlab/turbarch/internal/problem"
)

// RunState tracks one background optimization run.
type RunState struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"` // "running", "completed", "failed", "cancelled"
	StartTime time.Time      `json:"start_time"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Result    *driver.Result `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`

	cancel context.CancelFunc
}

// Server serves the architecting problem API.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	problem *problem.Problem

	runs   map[string]*RunState
	runsMu sync.RWMutex
}

// NewServer creates a server around one problem instance.
func NewServer(cfg *config.Config, logger *zap.Logger, p *problem.Problem) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		problem: p,
		runs:    make(map[string]*RunState),
	}
}

// RegisterRoutes mounts the API onto the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/space", s.handleSpace)
		r.Post("/evaluate", s.handleEvaluate)
		r.Get("/stats", s.handleStats)
		r.Post("/optimize", s.handleOptimizeStart)
		r.Get("/optimize/{id}", s.handleOptimizeStatus)
		r.Delete("/optimize/{id}", s.handleOptimizeCancel)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

type variableView struct {
	Name     string               `json:"name"`
	Kind     string               `json:"kind"`
	Role     string               `json:"role"`
	Min      float64              `json:"min"`
	Max      float64              `json:"max"`
	Levels   []float64            `json:"levels,omitempty"`
	Options  []string             `json:"options,omitempty"`
	Requires []design.Requirement `json:"requires,omitempty"`
}

// handleSpace returns the design-variable specification.
func (s *Server) handleSpace(w http.ResponseWriter, _ *http.Request) {
	vars := s.problem.Space().Variables()
	views := make([]variableView, len(vars))
	for i, v := range vars {
		lo, hi := v.Bounds()
		views[i] = variableView{
			Name:     v.Name,
			Kind:     v.Kind.String(),
			Role:     v.Role.String(),
			Min:      lo,
			Max:      hi,
			Levels:   v.Levels,
			Options:  v.Options,
			Requires: v.Requires,
		}
	}
	s.respond(w, http.StatusOK, map[string]interface{}{
		"catalog":   s.problem.Space().Catalog().Name,
		"variables": views,
	})
}

type evaluateRequest struct {
	Vector []float64 `json:"vector"`
}

type evaluateResponse struct {
	Imputed       []float64 `json:"imputed"`
	Objectives    []float64 `json:"objectives"`
	Constraints   []float64 `json:"constraints"`
	Feasible      bool      `json:"feasible"`
	Infeasibility string    `json:"infeasibility,omitempty"`
	Failure       string    `json:"failure,omitempty"`
}

// handleEvaluate scores one design vector.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	res, err := s.problem.Evaluate(r.Context(), req.Vector)
	evaluationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var encErr *design.EncodingError
		if errors.As(err, &encErr) {
			s.respondError(w, http.StatusBadRequest, encErr.Error())
			return
		}
		s.logger.Error("evaluate failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "evaluation error")
		return
	}
	evaluationsTotal.WithLabelValues(outcomeLabel(res.Feasible, res.Failure != nil)).Inc()

	resp := evaluateResponse{
		Imputed:     res.Imputed,
		Objectives:  res.Objectives,
		Constraints: res.Constraints,
		Feasible:    res.Feasible,
	}
	if res.Infeasibility != nil {
		resp.Infeasibility = res.Infeasibility.String()
	}
	if res.Failure != nil {
		resp.Failure = res.Failure.String()
	}
	s.respond(w, http.StatusOK, resp)
}

// handleStats returns aggregate scoring diagnostics.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, s.problem.Stats())
}

type optimizeRequest struct {
	PopSize     int   `json:"pop_size"`
	Generations int   `json:"generations"`
	Seed        int64 `json:"seed"`
}

// handleOptimizeStart launches a background optimization run.
func (s *Server) handleOptimizeStart(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PopSize == 0 {
		req.PopSize = s.cfg.Optimization.PopSize
	}
	if req.Generations == 0 {
		req.Generations = s.cfg.Optimization.Generations
	}

	opt, err := driver.New(driver.Config{
		Problem:     s.problem,
		PopSize:     req.PopSize,
		Generations: req.Generations,
		Workers:     s.cfg.Optimization.Workers,
		Seed:        req.Seed,
	})
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	state := &RunState{
		ID:        uuid.NewString(),
		Status:    "running",
		StartTime: time.Now(),
		cancel:    cancel,
	}
	s.runsMu.Lock()
	s.runs[state.ID] = state
	s.runsMu.Unlock()
	activeRuns.Inc()

	go func() {
		defer activeRuns.Dec()
		result, err := opt.Run(ctx)
		now := time.Now()

		s.runsMu.Lock()
		defer s.runsMu.Unlock()
		state.EndTime = &now
		state.Result = result
		switch {
		case errors.Is(err, context.Canceled):
			state.Status = "cancelled"
		case err != nil:
			state.Status = "failed"
			state.Error = err.Error()
			s.logger.Error("optimization run failed", zap.String("run_id", state.ID), zap.Error(err))
		default:
			state.Status = "completed"
			s.logger.Info("optimization run completed",
				zap.String("run_id", state.ID),
				zap.Int("evaluations", result.Evaluations),
				zap.Int("pareto_size", len(result.Pareto)),
			)
		}
	}()

	s.respond(w, http.StatusAccepted, map[string]string{"id": state.ID, "status": "running"})
}

// handleOptimizeStatus reports one run's state. The state is copied under
// the lock: the run goroutine mutates it on completion.
func (s *Server) handleOptimizeStatus(w http.ResponseWriter, r *http.Request) {
	s.runsMu.RLock()
	state, ok := s.runs[chi.URLParam(r, "id")]
	var snapshot RunState
	if ok {
		snapshot = *state
	}
	s.runsMu.RUnlock()
	if !ok {
		s.respondError(w, http.StatusNotFound, "unknown run")
		return
	}
	s.respond(w, http.StatusOK, snapshot)
}

// handleOptimizeCancel cancels a running optimization.
func (s *Server) handleOptimizeCancel(w http.ResponseWriter, r *http.Request) {
	s.runsMu.RLock()
	state, ok := s.runs[chi.URLParam(r, "id")]
	s.runsMu.RUnlock()
	if !ok {
		s.respondError(w, http.StatusNotFound, "unknown run")
		return
	}
	state.cancel()
	s.respond(w, http.StatusOK, map[string]string{"id": state.ID, "status": "cancelling"})
}

func (s *Server) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, map[string]string{"error": msg})
}

// LoadCatalog resolves the configured catalog: a YAML file when a path is
// set, the built-in turbofan catalog otherwise.
func LoadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path != "" {
		return catalog.LoadFile(cfg.Catalog.Path)
	}
	return catalog.Turbofan(), nil
}
