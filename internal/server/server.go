package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asem-pro/maqal/config"
	"github.com/asem-pro/maqal/internal/telemetry"
	"github.com/asem-pro/maqal/provider"
	openai_provider "github.com/asem-pro/maqal/provider/openai"
	"github.com/asem-pro/maqal/tools/websearch"
)

// Server bundles the handler dependencies: one model provider, one image
// synthesizer, one searcher, shared across sessions.
type Server struct {
	cfg      *config.Config
	model    provider.Model
	images   provider.ImageSynthesizer
	searcher websearch.Searcher
	metrics  *telemetry.Telemetry
	logger   *log.Logger
}

func New(cfg *config.Config, model provider.Model, images provider.ImageSynthesizer, searcher websearch.Searcher, metrics *telemetry.Telemetry) *Server {
	return &Server{
		cfg:      cfg,
		model:    model,
		images:   images,
		searcher: searcher,
		metrics:  metrics,
		logger:   log.New(log.Writer(), "[SERVER] ", log.LstdFlags),
	}
}

// Routes builds the echo instance with middleware and all endpoints.
func (s *Server) Routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.cfg.Server.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/agent", s.handleAgent)
	api.POST("/images", s.handleImage)

	return e
}

// Run wires configuration into concrete providers and serves until the
// listener fails.
func Run(cfg *config.Config) error {
	prov, err := openai_provider.New(openai_provider.Options{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		ChatModel:   cfg.OpenAI.ChatModel,
		ImageModel:  cfg.OpenAI.ImageModel,
		ImageSize:   cfg.OpenAI.ImageSize,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     cfg.OpenAI.Timeout,
	}, log.New(log.Writer(), "[OPENAI] ", log.LstdFlags))
	if err != nil {
		return err
	}

	searcher, err := websearch.New(websearch.Provider(cfg.Search.Provider), cfg.SearchAPIKey())
	if err != nil {
		return err
	}

	var metrics *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		metrics = telemetry.New(prometheus.DefaultRegisterer)
	}

	s := New(cfg, prov, prov, searcher, metrics)
	e := s.Routes()
	log.Printf("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}
