// Package httpapi implements the debug/inspection HTTP surface (spec.md
// §6, SPEC_FULL.md §12): read-only snapshot and output inspection plus a
// UI-attach control endpoint, using gin the way the teacher's own
// cmd/autonomous dashboard does (gin.Default router, grouped /api
// routes, gin.H JSON responses) — narrowed from that file's dashboard +
// think/wake/rest control surface to read-only inspection plus the one
// control action (attach) this kernel's contract actually needs.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arth-22/nexuscortex/core/intake"
	"github.com/arth-22/nexuscortex/core/state"
)

// Server wraps a gin.Engine exposing the debug/inspection surface.
type Server struct {
	engine    *gin.Engine
	snapshot  func() state.Snapshot
	inbox     intake.Inbox
	startedAt time.Time
}

// New constructs a Server. snapshot is called on every /snapshot and
// /outputs request to read the current state without blocking the
// driver's tick loop (the caller is expected to hand back a copy, e.g.
// state.ExtractSnapshot's result cached by the driver). inbox is the
// shared channel POST /ui/attach and future UI-origin commands write to.
func New(snapshot func() state.Snapshot, inbox intake.Inbox) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{engine: engine, snapshot: snapshot, inbox: inbox, startedAt: time.Now()}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for use with http.Server
// or httptest.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)

	api := s.engine.Group("/api")
	{
		api.GET("/snapshot", s.handleSnapshot)
		api.GET("/outputs", s.handleOutputs)
		api.POST("/ui/attach", s.handleAttach)
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime_seconds": time.Since(s.startedAt).Seconds()})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	snap := s.snapshot()
	c.JSON(http.StatusOK, gin.H{
		"tick":      uint64(snap.Tick),
		"presence":  snap.Presence.String(),
		"suspended": snap.Suspended,
		"meta_latents": gin.H{
			"confidence_penalty":       snap.MetaLatents.ConfidencePenalty,
			"interruption_sensitivity": snap.MetaLatents.InterruptionSensitivity,
		},
		"intent_count":  len(snap.Intents),
		"output_count":  len(snap.Outputs),
		"inputs_recent": len(snap.InputsRecent),
	})
}

func (s *Server) handleOutputs(c *gin.Context) {
	snap := s.snapshot()
	outputs := make([]gin.H, 0, len(snap.Outputs))
	for id, o := range snap.Outputs {
		outputs = append(outputs, gin.H{
			"id":           string(id),
			"status":       o.Status.String(),
			"content":      o.Content,
			"proposed_at":  uint64(o.ProposedAt),
			"origin_epoch": uint64(o.OriginEpoch),
		})
	}
	c.JSON(http.StatusOK, gin.H{"outputs": outputs})
}

func (s *Server) handleAttach(c *gin.Context) {
	s.inbox <- intake.InboundEvent{Kind: intake.InboundUiCommand, UiCommand: intake.UiCommand{Kind: intake.Attach}}
	c.JSON(http.StatusOK, gin.H{"status": "attached"})
}
