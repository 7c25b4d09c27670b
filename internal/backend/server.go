package backend

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/fentz26/roster/internal/audit"
	"github.com/fentz26/roster/internal/models"
)

// Server provides the HTTP API the roster client's HTTP gateway talks to.
type Server struct {
	repo     Repository
	recorder *audit.Recorder
	addr     string
	logger   *log.Entry
	echo     *echo.Echo
}

// NewServer creates a server for repo listening on addr.
func NewServer(repo Repository, addr string, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	s := &Server{
		repo:     repo,
		recorder: audit.NewRecorder(repo),
		addr:     addr,
		logger:   logger.WithField("component", "backend"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(requestLogger(s.logger))

	e.GET("/health", s.health)
	e.GET("/tasks", s.listTasks)
	e.POST("/tasks", s.replaceTasks)
	e.GET("/housekeepers", s.listHousekeepers)
	e.GET("/submissions", s.listSubmissions)

	s.echo = e
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.addr).Info("starting roster backend")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func requestLogger(logger *log.Entry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			entry := logger.WithFields(log.Fields{
				"method":   req.Method,
				"path":     req.URL.Path,
				"status":   c.Response().Status,
				"duration": time.Since(start),
			})
			if c.Response().Status >= http.StatusInternalServerError {
				entry.Warn("request failed")
			} else {
				entry.Debug("request")
			}
			return nil
		}
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK   bool   `json:"ok"`
	DB   string `json:"db"`
	Time string `json:"time"`
}

func (s *Server) health(c echo.Context) error {
	resp := HealthResponse{OK: true, DB: "ok", Time: time.Now().UTC().Format(time.RFC3339)}
	if err := s.repo.Ping(c.Request().Context()); err != nil {
		resp.OK = false
		resp.DB = err.Error()
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) listTasks(c echo.Context) error {
	tasks, err := s.repo.ListTasks(c.Request().Context())
	if err != nil {
		s.logger.WithError(err).Error("list tasks")
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tasks)
}

// replaceTasks stores the submitted set as the new authoritative task list
// and echoes it back in stored order.
func (s *Server) replaceTasks(c echo.Context) error {
	ctx := c.Request().Context()

	var tasks []models.Task
	if err := c.Bind(&tasks); err != nil {
		return c.String(http.StatusBadRequest, "invalid json")
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	if err := s.repo.ReplaceTasks(ctx, tasks); err != nil {
		if isValidationError(err) {
			return c.String(http.StatusUnprocessableEntity, err.Error())
		}
		s.logger.WithError(err).Error("replace tasks")
		return c.String(http.StatusInternalServerError, err.Error())
	}

	sub, err := s.recorder.Record(ctx, tasks)
	if err != nil {
		s.logger.WithError(err).Warn("record submission")
	} else {
		s.logger.WithFields(log.Fields{
			"submission": sub.ID,
			"tasks":      sub.TaskCount,
		}).Info("tasks replaced")
	}

	stored, err := s.repo.ListTasks(ctx)
	if err != nil {
		s.logger.WithError(err).Error("list tasks")
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stored)
}

func (s *Server) listHousekeepers(c echo.Context) error {
	hks, err := s.repo.ListHousekeepers(c.Request().Context())
	if err != nil {
		s.logger.WithError(err).Error("list housekeepers")
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, hks)
}

func (s *Server) listSubmissions(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.String(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	subs, err := s.repo.ListSubmissions(c.Request().Context(), limit)
	if err != nil {
		s.logger.WithError(err).Error("list submissions")
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, subs)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrDuplicateTask) ||
		errors.Is(err, ErrEmptyTaskID) ||
		errors.Is(err, ErrNegativeDuration) ||
		errors.Is(err, ErrUnknownHousekeeper)
}
