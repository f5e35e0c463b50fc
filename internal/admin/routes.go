package admin

import (
	"net/http"
	"time"

	"github.com/danmuck/proxywire/internal/auth"
	"github.com/danmuck/proxywire/internal/protocol/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type pendingView struct {
	RequestID   int64     `json:"request_id"`
	RequestType string    `json:"request_type"`
	ReplyType   string    `json:"reply_type"`
	SubmittedAt time.Time `json:"submitted_at"`
	Deadline    time.Time `json:"deadline,omitzero"`
	Age         string    `json:"age"`
}

type sessionView struct {
	ID      string        `json:"id"`
	State   string        `json:"state"`
	Error   string        `json:"error,omitempty"`
	Pending []pendingView `json:"pending"`
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"node":     s.cfg.Node,
			"uptime":   time.Since(s.started).String(),
			"sessions": len(s.sessions()),
		})
	})

	// ready answers 503 until at least one session is running.
	s.router.GET("/ready", func(c *gin.Context) {
		running := 0
		for _, sess := range s.sessions() {
			if sess.State() == session.StateRunning {
				running++
			}
		}
		status := http.StatusOK
		if running == 0 {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ready": running > 0, "running": running})
	})

	guard := func(c *gin.Context) { c.Next() }
	if s.cfg.Token != "" {
		guard = auth.RequireToken(auth.StaticToken{Token: s.cfg.Token})
	}
	s.router.GET("/session", guard, func(c *gin.Context) {
		now := time.Now()
		list := s.sessions()
		out := make([]sessionView, 0, len(list))
		for _, sess := range list {
			out = append(out, viewSession(sess, now))
		}
		c.JSON(http.StatusOK, gin.H{"sessions": out})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func viewSession(sess *session.Session, now time.Time) sessionView {
	v := sessionView{
		ID:      sess.ID(),
		State:   sess.State().String(),
		Pending: []pendingView{},
	}
	if err := sess.Err(); err != nil {
		v.Error = err.Error()
	}
	for _, p := range sess.Pending() {
		v.Pending = append(v.Pending, pendingView{
			RequestID:   p.RequestID,
			RequestType: p.RequestType.String(),
			ReplyType:   p.ReplyType.String(),
			SubmittedAt: p.SubmittedAt,
			Deadline:    p.Deadline,
			Age:         now.Sub(p.SubmittedAt).Round(time.Millisecond).String(),
		})
	}
	return v
}
