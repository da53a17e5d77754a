package server

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gommonlog "github.com/labstack/gommon/log"
	"github.com/segmentio/ksuid"

	"aijudge/pkg/config"
	"aijudge/pkg/queue"
	"aijudge/pkg/schema"
	"aijudge/pkg/utils"
)

type Judger interface {
	Judge(ctx context.Context, story string, evidence []string) (schema.Judgment, error)
}

type RequestLogStore interface {
	Create(ctx context.Context, l *schema.RequestLog) error
	Complete(ctx context.Context, id uuid.UUID, j schema.Judgment, reason string) error
	Fail(ctx context.Context, id uuid.UUID, msg string) error
	Get(ctx context.Context, id uuid.UUID) (*schema.RequestLog, error)
}

type UserStore interface {
	Upsert(ctx context.Context, udid string) (*schema.User, error)
}

// Deps are the collaborators the handlers call. Notifier may be nil.
type Deps struct {
	Judge    Judger
	Logs     RequestLogStore
	Users    UserStore
	Notifier queue.Queue
	Logger   *log.Logger
}

type Server struct {
	Echo *echo.Echo
	Deps

	appName string
	cfg     config.ServerConfig
	log     *log.Logger
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(echoLevel(cfg.Log.Level))
	e.Validator = newValidator()

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return ksuid.New().String() },
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORS.Origins(),
		AllowCredentials: cfg.CORS.AllowCredentials,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"*"},
	}))
	e.Use(middleware.BodyLimit(cmp.Or(cfg.Server.BodyLimit, "32M")))

	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		Echo:    e,
		Deps:    deps,
		appName: cfg.AppName,
		cfg:     cfg.Server,
		log:     logger.With("component", "http"),
	}
	e.HTTPErrorHandler = s.handleError

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	s.Echo.GET("/health", s.handleGetHealth)

	api := s.Echo.Group("/api")
	api.POST("/judge", s.handlePostJudge)
	api.GET("/judge/:request_id", s.handleGetJudge)
	api.POST("/user/login", s.handlePostLogin)
}

func (s *Server) Start() error {
	s.Echo.Server.ReadTimeout = s.cfg.ReadTimeout
	s.Echo.Server.WriteTimeout = s.cfg.WriteTimeout
	s.log.Info("server listening", "addr", s.cfg.Addr())
	return s.Echo.Start(s.cfg.Addr())
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.Echo.Shutdown(ctx)
}

// handleError renders every error as {"success":false,"error":...}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, utils.ErrJSON(msg))
	}
	if err != nil {
		s.log.Error("writing error response", "err", err)
	}
}

func echoLevel(level string) gommonlog.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return gommonlog.DEBUG
	case "warn", "warning":
		return gommonlog.WARN
	case "error", "fatal":
		return gommonlog.ERROR
	default:
		return gommonlog.INFO
	}
}
