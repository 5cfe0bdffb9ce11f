package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/goal"
	"github.com/trezcool/ratiba/core/planner"
	"github.com/trezcool/ratiba/core/progress"
	"github.com/trezcool/ratiba/core/subject"
	"github.com/trezcool/ratiba/core/task"
	"github.com/trezcool/ratiba/core/user"
)

type (
	Deps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool

		UserSvc     user.Service
		SubjectSvc  subject.Service
		SlotSvc     planner.Service
		TaskSvc     task.Service
		GoalSvc     goal.Service
		ProgressSvc progress.Service
	}

	Server struct {
		addr     string
		deps     *Deps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

// NewServer builds the API. A nil shutdown channel is replaced by one notified on SIGINT and SIGTERM.
func NewServer(addr string, shutdown chan os.Signal, deps *Deps) *Server {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	}
	s := &Server{
		addr:     addr,
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1", middleware.JWTWithConfig(newJWTConfig(conf)), identityMiddleware(s.deps.UserSvc))

	registerUserAPI(v1)
	registerSubjectAPI(v1, s.deps.SubjectSvc, s.deps.Validate)
	registerSlotAPI(v1, s.deps.SlotSvc, s.deps.Validate)
	registerTaskAPI(v1, s.deps.TaskSvc, s.deps.Conf, s.deps.Validate)
	registerGoalAPI(v1, s.deps.GoalSvc, s.deps.Validate)
	registerProgressAPI(v1, s.deps.ProgressSvc, s.deps.Conf, s.deps.Validate)
}

// Start blocks until the listener fails; the failure is reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
