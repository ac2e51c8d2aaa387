// Package server exposes the pipeline over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/airwater-cli/internal/analysis"
	"github.com/KaramelBytes/airwater-cli/internal/dataset"
	"github.com/KaramelBytes/airwater-cli/internal/pipeline"
)

// Analyzer runs selections; *pipeline.Service implements it.
type Analyzer interface {
	CheckReadiness() error
	CompleteAir(sel analysis.AirSelection, allCities, allYears bool) (analysis.AirSelection, error)
	Air(sel analysis.AirSelection) (*pipeline.AirResult, error)
	AirOptions(country string) (*pipeline.AirOptions, error)
	Water(sel analysis.WaterSelection) (*pipeline.WaterResult, error)
	WaterOptions(country string) (*pipeline.WaterOptions, error)
}

// Server serves health, readiness, metrics and the analysis API.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	svc        Analyzer
	logger     *slog.Logger
}

// NewServer builds the router. metrics is mounted at /metrics.
func NewServer(addr string, svc Analyzer, metrics http.Handler, logger *slog.Logger) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		engine: engine,
		svc:    svc,
		logger: logger,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
	s.RegisterRoutes(engine, metrics)
	return s
}

// RegisterRoutes mounts every endpoint on router.
func (s *Server) RegisterRoutes(router *gin.Engine, metrics http.Handler) {
	router.GET("/healthz", s.handleHealth)
	router.GET("/readyz", s.handleReady)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
	api := router.Group("/api/v1")
	api.GET("/air", s.handleAir)
	api.GET("/air/options", s.handleAirOptions)
	api.GET("/water", s.handleWater)
	api.GET("/water/options", s.handleWaterOptions)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleReady(c *gin.Context) {
	if err := s.svc.CheckReadiness(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleAir(c *gin.Context) {
	sel := analysis.AirSelection{
		Country:   c.Query("country"),
		City:      c.Query("city"),
		Pollutant: c.DefaultQuery("pollutant", dataset.Pollutants[0]),
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			s.fail(c, http.StatusBadRequest, errors.New("year must be an integer"))
			return
		}
		sel.Year = year
	}
	sel, err := s.svc.CompleteAir(sel, queryBool(c, "all_cities"), queryBool(c, "all_years"))
	if err != nil {
		s.failFor(c, err)
		return
	}
	res, err := s.svc.Air(sel)
	if err != nil {
		s.failFor(c, err)
		return
	}
	if c.Query("format") == "markdown" {
		c.String(http.StatusOK, res.Markdown(queryInt(c, "rows")))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleAirOptions(c *gin.Context) {
	opts, err := s.svc.AirOptions(c.Query("country"))
	if err != nil {
		s.failFor(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

func (s *Server) handleWater(c *gin.Context) {
	sel := analysis.WaterSelection{Country: c.Query("country")}
	if regions, ok := c.GetQueryArray("region"); ok {
		sel.Regions = []string{}
		for _, r := range regions {
			for _, part := range strings.Split(r, ",") {
				if p := strings.TrimSpace(part); p != "" {
					sel.Regions = append(sel.Regions, p)
				}
			}
		}
	}
	res, err := s.svc.Water(sel)
	if err != nil {
		s.failFor(c, err)
		return
	}
	if c.Query("format") == "markdown" {
		c.String(http.StatusOK, res.Markdown(queryInt(c, "rows")))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleWaterOptions(c *gin.Context) {
	opts, err := s.svc.WaterOptions(c.Query("country"))
	if err != nil {
		s.failFor(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

// failFor maps pipeline errors onto HTTP status codes.
func (s *Server) failFor(c *gin.Context, err error) {
	var notFound *dataset.FileNotFoundError
	switch {
	case errors.Is(err, analysis.ErrUnknownPollutant):
		s.fail(c, http.StatusBadRequest, err)
	case errors.As(err, &notFound):
		s.fail(c, http.StatusServiceUnavailable, err)
	default:
		s.fail(c, http.StatusInternalServerError, err)
	}
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}
