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

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/attendance"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/document"
	"github.com/pathwayhq/pathway/core/ecommerce"
	"github.com/pathwayhq/pathway/core/enrollment"
	"github.com/pathwayhq/pathway/core/export"
	"github.com/pathwayhq/pathway/core/journey"
	"github.com/pathwayhq/pathway/core/navigation"
	"github.com/pathwayhq/pathway/core/task"
	"github.com/pathwayhq/pathway/core/trade"
	"github.com/pathwayhq/pathway/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Storage    core.FileStorage
		Localizer  *export.Localizer

		UserSvc       user.ServiceInterface
		JourneySvc    journey.ServiceInterface
		TaskSvc       task.ServiceInterface
		DocumentSvc   document.ServiceInterface
		TradeSvc      trade.ServiceInterface
		EnrollmentSvc enrollment.ServiceInterface
		ECommerceSvc  ecommerce.ServiceInterface
		AttendanceSvc attendance.ServiceInterface
		AuditSvc      audit.ServiceInterface
		NavigationSvc navigation.ServiceInterface
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", home)
	if conf.Storage.Driver == "" || conf.Storage.Driver == "disk" {
		s.app.Static("/media", conf.Storage.MediaDir)
	}

	v1 := s.app.Group("/v1")
	jwtConf := newJWTConfig(conf)
	jwt := middleware.JWTWithConfig(jwtConf)
	up := uploader{storage: s.deps.Storage}

	registerUserAPI(v1, jwt, s.deps, up)
	registerJourneyAPI(v1, jwt, s.deps)
	registerTaskAPI(v1, jwt, s.deps, up)
	registerDocumentAPI(v1, jwt, s.deps, up)
	registerTradeAPI(v1, jwt, s.deps, up)
	registerEnrollmentAPI(v1, jwt, s.deps, up)
	registerECommerceAPI(v1, jwt, s.deps)
	registerAttendanceAPI(v1, jwt, s.deps)
	registerAuditAPI(v1, jwt, s.deps)
	registerNavigationAPI(v1, jwt, s.deps)
	registerReportAPI(v1, jwt, s.deps)
}

// Start listens on the configured address; the listening error is sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the app to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Pathway API!")
}
