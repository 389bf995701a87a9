package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/curriculum"
	"github.com/trezcool/mentora/core/inbox"
	"github.com/trezcool/mentora/core/vip"
	emailsvc "github.com/trezcool/mentora/services/email"
	logsvc "github.com/trezcool/mentora/services/logger"
	"github.com/trezcool/mentora/storage/database"
	pgxrepos "github.com/trezcool/mentora/storage/database/pgx"
	sqlxrepos "github.com/trezcool/mentora/storage/database/sqlx"
)

var logger *zap.SugaredLogger

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger = zl.Named("admin").Sugar()
	appLogger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	appLogger.Enable(conf.IsProd())

	// set up DB
	ctx := context.Background()
	db, err := database.Open(conf)
	errAndDie(err)
	errAndDie(database.Ping(ctx, db))
	pool, err := database.OpenPool(ctx, conf)
	errAndDie(err)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, appLogger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, appLogger)
	}
	core.ParseEmailTemplates(conf, appLogger)

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator)
	curriculum.InitValidators(validate, translator)

	usrRepo := sqlxrepos.NewUserRepository(db)
	curSvc := curriculum.NewService(sqlxrepos.NewCurriculumRepository(db))
	inboxSvc := inbox.NewService(sqlxrepos.NewMessageRepository(db), usrRepo, curSvc)

	// start CLI
	cli := commandLine{
		db:       db.DB,
		out:      os.Stdout,
		usrRepo:  usrRepo,
		curSvc:   curSvc,
		vipSvc:   vip.NewService(usrRepo, pgxrepos.NewProgressRepository(pool), curSvc, inboxSvc, mailSvc),
		validate: validate,
	}
	err = cli.run(os.Args)

	pool.Close()
	_ = db.Close()
	_ = zl.Sync()
	if err != nil {
		if err != errHelp {
			logger.Errorf("%v", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
