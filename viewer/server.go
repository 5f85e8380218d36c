package viewer

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

//go:embed assets/index.html
var indexHTML []byte

// Options configure the HTTP listener.
type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server serves one output directory.
type Server struct {
	layout   Layout
	packages []Package
	logger   zerolog.Logger
	opts     Options
}

// NewServer validates layout and builds the download packages.
func NewServer(layout Layout, logger zerolog.Logger, opts Options) (*Server, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	pkgs, err := BuildPackages(layout)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(opts.Host) == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Port <= 0 {
		opts.Port = 8000
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	return &Server{
		layout:   layout,
		packages: pkgs,
		logger:   logger.With().Str("component", "viewer").Logger(),
		opts:     opts,
	}, nil
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
}

// Handler returns the routed echo instance.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := s.logger.Debug()
			if v.Error != nil {
				ev = s.logger.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})

	api := e.Group("/api")
	api.GET("/tree", s.handleTree)
	api.GET("/meta", s.handleMeta)
	api.GET("/document", s.handleDocument)

	// Same payloads under the names the static export uses.
	e.GET("/data/tree.json", s.handleTree)
	e.GET("/data/meta.json", s.handleMeta)

	e.GET("/"+packagesDir+"/:name", s.handlePackage)
	e.Static("/"+s.layout.SourceLang, s.layout.SourceDir())
	e.Static("/"+s.layout.TargetLang, s.layout.TargetDir())
	return e
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	e := s.Handler()
	httpServer := &http.Server{
		Addr:         s.Addr(),
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("viewer shutdown failed")
		}
	}()

	s.logger.Info().
		Str("addr", s.Addr()).
		Str("output_dir", s.layout.OutputDir).
		Msg("viewer started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start viewer: %w", err)
	}
	s.logger.Info().Msg("viewer stopped")
	return nil
}

func (s *Server) handleTree(c echo.Context) error {
	tree, err := BuildTree(s.layout.SourceDir())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, tree)
}

func (s *Server) handleMeta(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, newMeta(s.layout, s.packages))
}

func (s *Server) handleDocument(c echo.Context) error {
	raw := c.QueryParam("path")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing 'path' parameter")
	}
	doc, err := LoadDocument(s.layout, raw)
	switch {
	case errors.Is(err, ErrBadPath):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoDocument):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case err != nil:
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) handlePackage(c echo.Context) error {
	name := c.Param("name")
	for _, p := range s.packages {
		if p.Filename == name {
			return c.Attachment(p.archive, p.Filename)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "package not found")
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok && strings.TrimSpace(m) != "" {
			message = m
		} else {
			message = strings.ToLower(http.StatusText(status))
		}
	} else {
		s.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("viewer request failed")
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = c.JSON(status, map[string]string{"error": message})
		return
	}
	_ = c.String(status, message)
}
