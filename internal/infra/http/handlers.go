package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zlomke76-del/solace-adapter/pkg/domain"
)

const (
	ReasonMethodNotAllowed = "method_not_allowed"
	ReasonInvalidJSON      = "invalid_json"
	ReasonMissingBody      = "missing_request_body"
	ReasonAdapterInternal  = "adapter_internal_error"
	ReasonRateLimited      = "rate_limited"
)

type gateRequest struct {
	Intent     map[string]any `json:"intent"`
	Execute    map[string]any `json:"execute"`
	Acceptance map[string]any `json:"acceptance"`
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealthz)
	s.r.POST("/v1/gate", s.handleGate)
	s.r.NoMethod(s.handleMethodNotAllowed)
	s.r.NoRoute(s.handleMethodNotAllowed)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func recoveryHandler(c *gin.Context, err any) {
	c.JSON(http.StatusInternalServerError, domain.GateResult{
		Decision: domain.Deny,
		Reason:   ReasonAdapterInternal,
	})
}

func (s *Server) handleMethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, domain.GateResult{
		Decision: domain.Deny,
		Reason:   ReasonMethodNotAllowed,
	})
}

func (s *Server) handleGate(c *gin.Context) {
	if c.Request.ContentLength == 0 {
		c.JSON(http.StatusBadRequest, domain.GateResult{Decision: domain.Deny, Reason: ReasonMissingBody})
		return
	}

	var req gateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.GateResult{Decision: domain.Deny, Reason: ReasonInvalidJSON})
		return
	}

	if s.rateLimiter != nil {
		requestKey := clientKey(c)
		decision, err := s.rateLimiter.Allow(c.Request.Context(), requestKey, s.cfg.RateLimitRequests, s.rateLimitWindow)
		if err == nil && !decision.Allowed {
			c.JSON(http.StatusForbidden, domain.GateResult{Decision: domain.Deny, Reason: ReasonRateLimited})
			return
		}
	}

	envelope := domain.Envelope{Intent: req.Intent, Execute: req.Execute, Acceptance: req.Acceptance}

	requestID := uuid.NewString()
	result := s.gate.Run(c.Request.Context(), envelope)

	if s.audit != nil {
		actorID, _ := actorIDOf(envelope)
		s.audit.Record(c.Request.Context(), requestID, result, serviceOf(envelope), actorID)
	}

	c.JSON(statusFor(result.Decision), result)
}

func statusFor(d domain.Decision) int {
	switch d {
	case domain.Permit:
		return http.StatusOK
	case domain.Deny, domain.Escalate:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func clientKey(c *gin.Context) string {
	return c.ClientIP()
}

func actorIDOf(e domain.Envelope) (string, bool) {
	actorMap, ok := e.Intent["actor"].(map[string]any)
	if !ok {
		return "", false
	}
	id, ok := actorMap["id"].(string)
	return id, ok
}

func serviceOf(e domain.Envelope) string {
	action, _ := e.Execute["action"].(string)
	idx := strings.Index(action, ":")
	if idx <= 0 {
		return ""
	}
	return action[:idx]
}
