package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/cv-keyword-analyzer/internal/db"
	"github.com/jonathan/cv-keyword-analyzer/internal/normalize"
	"github.com/jonathan/cv-keyword-analyzer/internal/pipeline"
	"github.com/jonathan/cv-keyword-analyzer/internal/server/middleware"
)

// HealthResponse represents the response for /api/health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// ListResponse represents the response for /api/analyses
type ListResponse struct {
	Analyses []db.AnalysisSummary `json:"analyses"`
}

// handleHealth reports liveness and the state of the analysis store
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "disabled"}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.requestLog(r).WithError(err).Warn("database ping failed")
			resp.Database = "unavailable"
		} else {
			resp.Database = "ok"
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleAnalyze runs one analysis and returns the result as JSON
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	up, err := saveUpload(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	defer up.remove()

	ctx, cancel := s.analysisContext(r.Context())
	defer cancel()

	result, err := s.runner.Run(ctx, pipeline.Input{ResumePath: up.Path, JobURLs: up.JobLinks})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	if id, ok := s.save(r, up.Filename, result); ok {
		w.Header().Set("X-Analysis-ID", id.String())
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleAnalyzeStream runs one analysis and streams progress as SSE
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	up, err := saveUpload(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	defer up.remove()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	ctx, cancel := s.analysisContext(r.Context())
	defer cancel()

	in := pipeline.Input{
		ResumePath: up.Path,
		JobURLs:    up.JobLinks,
		OnProgress: func(event pipeline.ProgressEvent) {
			if err := sse.WriteEvent("progress", event); err != nil {
				s.requestLog(r).WithError(err).Debug("progress event not delivered")
			}
		},
	}

	result, err := s.runner.Run(ctx, in)
	if err != nil {
		_, kind := classify(err)
		s.requestLog(r).WithError(err).WithField("error_type", kind).Error("streamed analysis failed")
		sse.WriteError(ErrorBody{Error: userMessage(err), ErrorType: kind})
		return
	}

	var analysisID string
	if id, ok := s.save(r, up.Filename, result); ok {
		analysisID = id.String()
	}
	sse.WriteResult(result, analysisID)
}

// handleGetAnalysis returns a stored analysis
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, r, ErrStoreDisabled)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, r, fmt.Errorf("%w: invalid id", db.ErrNotFound))
		return
	}

	a, err := s.store.GetAnalysis(r.Context(), id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	// Analyses owned by a user are only visible to that user.
	if a.UserID != nil {
		caller, ok := middleware.UserID(r.Context())
		if !ok || caller != *a.UserID {
			s.errorResponse(w, r, db.ErrNotFound)
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, a)
}

// handleListAnalyses lists the caller's analyses, newest first
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, r, ErrStoreDisabled)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		s.errorResponse(w, r, ErrUnauthorized)
		return
	}

	limit := db.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= db.DefaultListLimit {
			limit = n
		}
	}

	items, err := s.store.ListAnalyses(r.Context(), userID, limit)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if items == nil {
		items = []db.AnalysisSummary{}
	}
	s.jsonResponse(w, http.StatusOK, ListResponse{Analyses: items})
}

func (s *Server) analysisContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout > 0 {
		return context.WithTimeout(parent, s.cfg.RequestTimeout)
	}
	return context.WithCancel(parent)
}

// save stores result when persistence is enabled. Failures are logged and
// never fail the request.
func (s *Server) save(r *http.Request, filename string, result *normalize.Result) (uuid.UUID, bool) {
	if !s.cfg.SaveResults || s.store == nil {
		return uuid.Nil, false
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.requestLog(r).WithError(err).Error("failed to encode analysis")
		return uuid.Nil, false
	}

	var userID *uuid.UUID
	if id, ok := middleware.UserID(r.Context()); ok {
		userID = &id
	}

	id, err := s.store.SaveAnalysis(r.Context(), userID, filename, data)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.requestLog(r).Warn("client went away before the analysis was saved")
		} else {
			s.requestLog(r).WithError(err).Error("failed to save analysis")
		}
		return uuid.Nil, false
	}
	s.requestLog(r).WithField("analysis_id", id).Info("analysis saved")
	return id, true
}
