package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/progress"
	"github.com/trezcool/ratiba/core/user"
	appfs "github.com/trezcool/ratiba/fs"
	emailsvc "github.com/trezcool/ratiba/services/email"
	logsvc "github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/storage/database"
	boiledrepos "github.com/trezcool/ratiba/storage/database/sqlboiler"
	"github.com/trezcool/ratiba/storage/database/sqlxrepos"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.LoadConfig()
	errAndDie(err)
	appLogger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf), conf)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, appLogger)
	mailSvc := emailsvc.NewService(conf, appLogger)

	usrRepo := sqlxrepos.NewUserRepository(db)
	subRepo := sqlxrepos.NewSubjectRepository(db)
	slotRepo := sqlxrepos.NewSlotRepository(db)

	// start CLI
	cli := commandLine{
		conf:     conf,
		db:       db,
		validate: validate,
		usrSvc:   user.NewService(db, usrRepo),
		progressSvc: progress.NewService(conf, db, sqlxrepos.NewProgressRepository(db),
			boiledrepos.NewReportRepository(db), slotRepo, subRepo, usrRepo, mailSvc, appLogger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
