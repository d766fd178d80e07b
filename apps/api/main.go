package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/pathwayhq/pathway/apps/api/echo"
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
	emailsvc "github.com/pathwayhq/pathway/services/email"
	logsvc "github.com/pathwayhq/pathway/services/logger"
	storagesvc "github.com/pathwayhq/pathway/services/storage"
	"github.com/pathwayhq/pathway/storage/database"
	inmemdb "github.com/pathwayhq/pathway/storage/database/inmem"
	sqlxrepos "github.com/pathwayhq/pathway/storage/database/sqlx"
)

// repositories groups the storage of every service, either in Postgres or in memory.
type repositories struct {
	user       user.Repository
	journey    journey.Repository
	task       task.Repository
	document   document.Repository
	trade      trade.Repository
	enrollment enrollment.Repository
	ecommerce  ecommerce.Repository
	attendance attendance.Repository
	audit      audit.Repository
	navigation navigation.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	repos, closer, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = closer.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	store, err := storagesvc.New(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	localizer, err := export.NewLocalizer()
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading export locales: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	auditSvc := audit.NewService(repos.audit)
	usrSvc := user.NewService(repos.user, mailSvc, conf)
	navSvc := navigation.NewService(repos.navigation, auditSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	document.InitValidators(validate, translator)
	ecommerce.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(logger)

	if n, err := navSvc.Seed(context.Background()); err != nil {
		logger.Error(fmt.Sprintf("seeding navigation settings: %v", err), err)
	} else if n > 0 {
		logger.Info(fmt.Sprintf("%d navigation settings created", n))
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			Storage:    store,
			Localizer:  localizer,

			UserSvc:       usrSvc,
			JourneySvc:    journey.NewService(repos.journey, auditSvc),
			TaskSvc:       task.NewService(repos.task, usrSvc, auditSvc, mailSvc),
			DocumentSvc:   document.NewService(repos.document, usrSvc, auditSvc, mailSvc),
			TradeSvc:      trade.NewService(repos.trade, usrSvc, auditSvc, mailSvc),
			EnrollmentSvc: enrollment.NewService(repos.enrollment, usrSvc, auditSvc, mailSvc),
			ECommerceSvc:  ecommerce.NewService(repos.ecommerce, usrSvc, auditSvc),
			AttendanceSvc: attendance.NewService(repos.attendance, usrSvc, auditSvc, logger),
			AuditSvc:      auditSvc,
			NavigationSvc: navSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func setUpRepositories(conf *core.Config) (repositories, io.Closer, error) {
	if conf.Database.IsMemory() {
		db := inmemdb.Open()
		return repositories{
			user:       inmemdb.NewUserRepository(db),
			journey:    inmemdb.NewJourneyRepository(db),
			task:       inmemdb.NewTaskRepository(db),
			document:   inmemdb.NewDocumentRepository(db),
			trade:      inmemdb.NewTradeRepository(db),
			enrollment: inmemdb.NewEnrollmentRepository(db),
			ecommerce:  inmemdb.NewECommerceRepository(db),
			attendance: inmemdb.NewAttendanceRepository(db),
			audit:      inmemdb.NewAuditRepository(db),
			navigation: inmemdb.NewNavigationRepository(db),
		}, nopCloser{}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return repositories{}, nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return repositories{}, nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return repositories{}, nil, errors.Wrap(err, "migrating")
	}
	return repositories{
		user:       sqlxrepos.NewUserRepository(db),
		journey:    sqlxrepos.NewJourneyRepository(db),
		task:       sqlxrepos.NewTaskRepository(db),
		document:   sqlxrepos.NewDocumentRepository(db),
		trade:      sqlxrepos.NewTradeRepository(db),
		enrollment: sqlxrepos.NewEnrollmentRepository(db),
		ecommerce:  sqlxrepos.NewECommerceRepository(db),
		attendance: sqlxrepos.NewAttendanceRepository(db),
		audit:      sqlxrepos.NewAuditRepository(db),
		navigation: sqlxrepos.NewNavigationRepository(db),
	}, db, nil
}
