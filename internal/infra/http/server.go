package http

import (
	"crypto/ed25519"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zlomke76-del/solace-adapter/internal/config"
	"github.com/zlomke76-del/solace-adapter/internal/core"
	"github.com/zlomke76-del/solace-adapter/internal/forwarder"
	"github.com/zlomke76-del/solace-adapter/internal/gate"
	"github.com/zlomke76-del/solace-adapter/internal/infra/audit"
	"github.com/zlomke76-del/solace-adapter/internal/infra/ratelimit"
	"github.com/zlomke76-del/solace-adapter/pkg/receipt"
)

type Server struct {
	cfg   config.Config
	r     *gin.Engine
	gate  *gate.Orchestrator
	audit *audit.Sink

	rateLimiter     ratelimit.Limiter
	rateLimitWindow time.Duration

	initErr error
}

type Deps struct {
	Core        gate.CoreClient
	Forward     gate.Forwarder
	Audit       *audit.Sink
	RateLimiter ratelimit.Limiter
}

func NewServer(cfg config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	privKey, err := receipt.ParsePrivateKeyPEM(cfg.ReceiptPrivateKeyPEM)
	if err != nil {
		return nil, err
	}

	coreClient, err := core.New(cfg.CoreBaseURL, cfg.CoreHeaders, msToDuration(cfg.CoreTimeoutMS), nil)
	if err != nil {
		return nil, err
	}
	fwd := forwarder.New(msToDuration(cfg.ForwardTimeoutMS), nil)

	auditSink, err := audit.New(cfg.AuditPostgresDSN)
	if err != nil {
		return nil, err
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimitRequests > 0 {
		if cfg.RedisAddr != "" {
			if l, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, nil); err == nil {
				limiter = l
			}
		}
		if limiter == nil {
			limiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{})
		}
	}

	return newServer(cfg, Deps{
		Core:        coreClient,
		Forward:     fwd,
		Audit:       auditSink,
		RateLimiter: limiter,
	}, privKey)
}

func NewServerWithDeps(cfg config.Config, deps Deps) (*Server, error) {
	privKey, err := receipt.ParsePrivateKeyPEM(cfg.ReceiptPrivateKeyPEM)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, deps, privKey)
}

func newServer(cfg config.Config, deps Deps, privKey ed25519.PrivateKey) (*Server, error) {
	r := gin.New()
	r.Use(gin.CustomRecovery(recoveryHandler))

	var limiter ratelimit.Limiter
	if deps.RateLimiter != nil {
		limiter = deps.RateLimiter
	}

	s := &Server{
		cfg:   cfg,
		r:     r,
		audit: deps.Audit,
		gate: &gate.Orchestrator{
			AdapterID:         cfg.AdapterID,
			ReceiptPrivateKey: privKey,
			ReceiptTTLSeconds: cfg.ReceiptTTLSeconds,
			Targets:           cfg.Targets,
			Core:              deps.Core,
			Forward:           deps.Forward,
		},
		rateLimiter:     limiter,
		rateLimitWindow: time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
	}
	s.routes()
	return s, nil
}

func (s *Server) Handler() *gin.Engine { return s.r }

func (s *Server) Run() error {
	if s.initErr != nil {
		return s.initErr
	}
	return s.r.Run(s.cfg.HTTPAddr)
}

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
