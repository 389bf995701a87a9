package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/mentora/apps/api/echo"
	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/curriculum"
	"github.com/trezcool/mentora/core/inbox"
	"github.com/trezcool/mentora/core/progress"
	"github.com/trezcool/mentora/core/user"
	"github.com/trezcool/mentora/core/vip"
	emailsvc "github.com/trezcool/mentora/services/email"
	logsvc "github.com/trezcool/mentora/services/logger"
	"github.com/trezcool/mentora/storage/database"
	pgxrepos "github.com/trezcool/mentora/storage/database/pgx"
	sqlxrepos "github.com/trezcool/mentora/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(conf.IsProd())
	defer logger.Sync()

	dbLogger := logsvc.NewRollbarLogger(zl.Named("db"), conf)

	// set up DB
	ctx := context.Background()
	db, pool, err := setUpDB(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		pool.Close()
		if err = db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	prgRepo := pgxrepos.NewProgressRepository(pool)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	curSvc := curriculum.NewService(sqlxrepos.NewCurriculumRepository(db))
	inboxSvc := inbox.NewService(sqlxrepos.NewMessageRepository(db), usrRepo, curSvc)
	vipSvc := vip.NewService(usrRepo, prgRepo, curSvc, inboxSvc, mailSvc)
	engine := progress.NewEngine(curSvc, prgRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	curriculum.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			CurriculumSvc: curSvc,
			Engine:        engine,
			VipSvc:        vipSvc,
			InboxSvc:      inboxSvc,
			Validate:      validate,
			Translator:    translator,
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
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
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

// setUpDB creates and migrates the database, then opens the sqlx handle and the pgx pool.
func setUpDB(ctx context.Context, conf *core.Config) (*sqlx.DB, *pgxpool.Pool, error) {
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	if err = database.Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	pool, err := database.OpenPool(ctx, conf)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, pool, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
