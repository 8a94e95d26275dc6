package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/inboxkit/domainverify/internal/api/handlers"
	"github.com/inboxkit/domainverify/internal/api/middleware"
	"github.com/inboxkit/domainverify/internal/config"
	"github.com/inboxkit/domainverify/internal/db"
	"github.com/inboxkit/domainverify/internal/dnscheck"
	"github.com/inboxkit/domainverify/internal/domaininfo"
)

type Server struct {
	Config *config.Config
	Router *gin.Engine
}

func NewServer(cfg *config.Config, repo *db.Repository, verifier *dnscheck.Verifier, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	server := &Server{
		Config: cfg,
		Router: router,
	}

	server.setupRoutes(repo, verifier, logger)
	return server
}

func (s *Server) setupRoutes(repo *db.Repository, verifier *dnscheck.Verifier, logger *zap.Logger) {
	// Health check and metrics
	s.Router.GET("/health", handlers.HealthCheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth routes
	authHandler := handlers.NewAuthHandler(repo, s.Config)
	auth := s.Router.Group("/api/v1/auth")
	{
		auth.POST("/signup", authHandler.SignUp)
		auth.POST("/login", authHandler.Login)
	}

	// API routes (protected)
	api := s.Router.Group("/api/v1")
	api.Use(middleware.AuthRequired(s.Config.Auth.JWTSecret))

	// Domain routes
	domainHandler := handlers.NewDomainHandler(repo, verifier, domaininfo.NewWHOISChecker(), logger)
	{
		api.GET("/domains", domainHandler.ListDomains)
		api.POST("/domains", domainHandler.CreateDomain)
		api.GET("/domains/:id", domainHandler.GetDomain)
		api.DELETE("/domains/:id", domainHandler.DeleteDomain)
		api.GET("/domains/:id/dns", domainHandler.GetDomainDNS)
		api.GET("/domains/:id/registration", domainHandler.GetRegistration)
		api.GET("/domains/:id/events", domainHandler.ListEvents)
	}

	// Verification triggers are rate limited per user
	verify := api.Group("")
	verify.Use(middleware.RateLimit(s.Config.RateLimit.RequestsPerSecond, s.Config.RateLimit.Burst))
	{
		verify.POST("/domains/:id/verify", domainHandler.VerifyDomain)
	}
}
