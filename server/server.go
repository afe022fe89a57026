// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes interactive clustering sessions over HTTP.
package server

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jcodagnone/kmeanslab/dataset"
	"github.com/jcodagnone/kmeanslab/kmeans"
	"github.com/jcodagnone/kmeanslab/report"
	"github.com/jcodagnone/kmeanslab/spatial"
)

// MaxDatasetSize bounds the number of points a request may generate.
const MaxDatasetSize = 100_000

type Server struct {
	mu       sync.RWMutex
	sessions map[string]*session
	defaults kmeans.Config
	// seed returns the rng seed of sessions created without one.
	seed func() int64
}

func NewServer(defaults kmeans.Config) *Server {
	return &Server{
		sessions: make(map[string]*session),
		defaults: defaults,
		seed:     func() int64 { return time.Now().UnixNano() },
	}
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	s.register(r)

	return r
}

func (s *Server) register(r gin.IRouter) {
	r.POST("/api/sessions", s.createSession)
	r.GET("/api/sessions/:id", s.getSession)
	r.DELETE("/api/sessions/:id", s.deleteSession)
	r.POST("/api/sessions/:id/dataset", s.newDataset)
	r.POST("/api/sessions/:id/strategy", s.selectStrategy)
	r.POST("/api/sessions/:id/centroids", s.addCentroid)
	r.POST("/api/sessions/:id/step", s.step)
	r.POST("/api/sessions/:id/converge", s.converge)
	r.POST("/api/sessions/:id/reset", s.reset)
	r.GET("/api/sessions/:id/summary", s.summary)
	r.GET("/api/strategies", s.listStrategies)
	r.GET("/sessions/:id/chart", s.chart)
}

func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

type DatasetRequest struct {
	N      int     `json:"n"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r DatasetRequest) withDefaults() (int, spatial.Bounds, error) {
	n := r.N
	if n == 0 {
		n = dataset.DefaultSize
	}

	if n > MaxDatasetSize {
		return 0, spatial.Bounds{}, fmt.Errorf("dataset size %d exceeds %d", n, MaxDatasetSize)
	}

	bounds := dataset.DefaultBounds
	if r.Width != 0 {
		bounds.Width = r.Width
	}

	if r.Height != 0 {
		bounds.Height = r.Height
	}

	return n, bounds, nil
}

type CreateSessionRequest struct {
	DatasetRequest
	Seed     *int64 `json:"seed"`
	K        int    `json:"k"`
	Strategy string `json:"strategy"`
}

type StrategyRequest struct {
	Strategy string `json:"strategy"`
	K        int    `json:"k"`
}

type SessionResponse struct {
	ID string `json:"id"`
	kmeans.Snapshot
	Colors   []string       `json:"colors"`
	Bounds   spatial.Bounds `json:"bounds"`
	Complete *bool          `json:"complete,omitempty"`
	Result   *kmeans.Result `json:"result,omitempty"`
}

func (sess *session) response() SessionResponse {
	snap := sess.state.Snapshot()

	return SessionResponse{
		ID:       sess.id,
		Snapshot: snap,
		Colors:   report.Palette(len(snap.Centroids)),
		Bounds:   sess.bounds,
	}
}

// writeError maps clustering errors to HTTP status codes.
func writeError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case kmeans.IsInvalidClusterCount(err), kmeans.IsInvalidStrategy(err):
		status = http.StatusBadRequest
	case kmeans.IsManualSequenceViolation(err), kmeans.IsUninitialized(err):
		status = http.StatusConflict
	case kmeans.IsNonConvergence(err):
		status = http.StatusUnprocessableEntity
	}

	ctx.JSON(status, gin.H{"error": err.Error()})
}

// bindOptionalJSON binds the body when there is one; an empty body keeps the
// zero value so every field falls back to its default.
func bindOptionalJSON(ctx *gin.Context, obj any) error {
	if ctx.Request.Body == nil || ctx.Request.ContentLength == 0 {
		return nil
	}

	return ctx.ShouldBindJSON(obj)
}

// withSession looks up the :id session and runs fn holding its lock.
func (s *Server) withSession(ctx *gin.Context, fn func(sess *session)) {
	s.mu.RLock()
	sess, ok := s.sessions[ctx.Param("id")]
	s.mu.RUnlock()

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "session not found"})

		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	fn(sess)
}

func (s *Server) createSession(ctx *gin.Context) {
	var req CreateSessionRequest
	if err := bindOptionalJSON(ctx, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	n, bounds, err := req.withDefaults()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	cfg := s.defaults
	if req.K != 0 {
		cfg.K = req.K
	}

	if req.Strategy != "" {
		if cfg.Strategy, err = kmeans.ParseStrategy(req.Strategy); err != nil {
			writeError(ctx, err)

			return
		}
	}

	seed := s.seed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	sess, err := newSession(uuid.NewString(), cfg, seed, n, bounds)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	log.Printf("session %s created: %d points, k=%d, strategy=%s", sess.id, n, cfg.K, cfg.Strategy)

	ctx.JSON(http.StatusCreated, sess.response())
}

func (s *Server) getSession(ctx *gin.Context) {
	s.withSession(ctx, func(sess *session) {
		ctx.JSON(http.StatusOK, sess.response())
	})
}

func (s *Server) deleteSession(ctx *gin.Context) {
	id := ctx.Param("id")

	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "session not found"})

		return
	}

	ctx.Status(http.StatusNoContent)
}

func (s *Server) newDataset(ctx *gin.Context) {
	var req DatasetRequest
	if err := bindOptionalJSON(ctx, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	n, bounds, err := req.withDefaults()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	s.withSession(ctx, func(sess *session) {
		if err := sess.generate(n, bounds); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		ctx.JSON(http.StatusOK, sess.response())
	})
}

func (s *Server) selectStrategy(ctx *gin.Context) {
	var req StrategyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	strategy, err := kmeans.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(ctx, err)

		return
	}

	s.withSession(ctx, func(sess *session) {
		if err := sess.selectStrategy(strategy, req.K); err != nil {
			writeError(ctx, err)

			return
		}

		ctx.JSON(http.StatusOK, sess.response())
	})
}

func (s *Server) addCentroid(ctx *gin.Context) {
	var p spatial.Point
	if err := ctx.ShouldBindJSON(&p); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	s.withSession(ctx, func(sess *session) {
		complete, err := sess.addManualCentroid(p)
		if err != nil {
			writeError(ctx, err)

			return
		}

		if complete {
			log.Printf("session %s: all %d centroids selected", sess.id, sess.state.K())
		}

		resp := sess.response()
		resp.Complete = &complete
		ctx.JSON(http.StatusOK, resp)
	})
}

func (s *Server) step(ctx *gin.Context) {
	s.withSession(ctx, func(sess *session) {
		if err := sess.step(ctx.Request.Context()); err != nil {
			writeError(ctx, err)

			return
		}

		ctx.JSON(http.StatusOK, sess.response())
	})
}

func (s *Server) converge(ctx *gin.Context) {
	s.withSession(ctx, func(sess *session) {
		result, err := sess.runToConvergence(ctx.Request.Context())
		if err != nil {
			if kmeans.IsNonConvergence(err) {
				log.Printf("session %s: %v", sess.id, err)

				resp := sess.response()
				resp.Result = &result
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "session": resp})

				return
			}

			writeError(ctx, err)

			return
		}

		resp := sess.response()
		resp.Result = &result
		ctx.JSON(http.StatusOK, resp)
	})
}

func (s *Server) reset(ctx *gin.Context) {
	s.withSession(ctx, func(sess *session) {
		sess.reset()
		ctx.JSON(http.StatusOK, sess.response())
	})
}

func (s *Server) summary(ctx *gin.Context) {
	s.withSession(ctx, func(sess *session) {
		ctx.JSON(http.StatusOK, report.SummarizeSnapshot(sess.state.Snapshot()))
	})
}

func (s *Server) listStrategies(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, kmeans.Strategies())
}

func (s *Server) chart(ctx *gin.Context) {
	s.withSession(ctx, func(sess *session) {
		var buf bytes.Buffer
		if err := report.RenderHTML(&buf, sess.state.Snapshot()); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

			return
		}

		ctx.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	})
}
