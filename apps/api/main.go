package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/Wrug-hu/school-portal/apps/api/echo"
	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/announcement"
	"github.com/Wrug-hu/school-portal/core/assignment"
	"github.com/Wrug-hu/school-portal/core/dashboard"
	"github.com/Wrug-hu/school-portal/core/filestore"
	"github.com/Wrug-hu/school-portal/core/message"
	"github.com/Wrug-hu/school-portal/core/principal"
	"github.com/Wrug-hu/school-portal/core/schedule"
	emailsvc "github.com/Wrug-hu/school-portal/services/email"
	logsvc "github.com/Wrug-hu/school-portal/services/logger"
	"github.com/Wrug-hu/school-portal/storage/database"
	sqlxrepos "github.com/Wrug-hu/school-portal/storage/database/sqlx"
)

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
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	principalSvc := principal.NewService(sqlxrepos.NewPrincipalRepository(db), mailSvc)
	scheduleSvc := schedule.NewService(sqlxrepos.NewScheduleRepository(db))
	assignmentSvc := assignment.NewService(sqlxrepos.NewAssignmentRepository(db))
	fileSvc := filestore.NewService(sqlxrepos.NewFileRepository(db))
	announcementSvc := announcement.NewService(sqlxrepos.NewAnnouncementRepository(db))
	messageSvc := message.NewService(sqlxrepos.NewMessageRepository(db), principalSvc, mailSvc)
	dashboardSvc := dashboard.NewService(scheduleSvc, assignmentSvc, fileSvc, announcementSvc, messageSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	principal.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	announcement.InitValidators(validate, translator)

	principal.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			PrincipalSvc:    principalSvc,
			ScheduleSvc:     scheduleSvc,
			AssignmentSvc:   assignmentSvc,
			FileSvc:         fileSvc,
			AnnouncementSvc: announcementSvc,
			MessageSvc:      messageSvc,
			DashboardSvc:    dashboardSvc,
			Validate:        validate,
			Translator:      translator,
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

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
