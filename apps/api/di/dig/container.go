package dig_container

import (
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/goal"
	"github.com/trezcool/ratiba/core/planner"
	"github.com/trezcool/ratiba/core/progress"
	"github.com/trezcool/ratiba/core/subject"
	"github.com/trezcool/ratiba/core/task"
	"github.com/trezcool/ratiba/core/user"
	emailsvc "github.com/trezcool/ratiba/services/email"
	logsvc "github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/storage/database"
	boiledrepos "github.com/trezcool/ratiba/storage/database/sqlboiler"
	"github.com/trezcool/ratiba/storage/database/sqlxrepos"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newRollbarLogger(conf *core.Config, prefix string) core.Logger {
	std := logsvc.NewStdLogger(conf)
	std.SetPrefix(prefix)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(conf.RollbarToken != "" && !conf.Debug)
	return logger
}

func newLogger(conf *core.Config) core.Logger {
	return newRollbarLogger(conf, "API : ")
}

func newDBLogger(conf *core.Config) core.Logger {
	return newRollbarLogger(conf, "DB : ")
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, conf.Database.Engine); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newCoreDB(db *sqlx.DB) core.DB { return db }

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return validate, translator
}

type serverParams struct {
	dig.In

	Conf        *core.Config
	Logger      core.Logger
	Validate    *validator.Validate
	Translator  ut.Translator
	UserSvc     user.Service
	SubjectSvc  subject.Service
	SlotSvc     planner.Service
	TaskSvc     task.Service
	GoalSvc     goal.Service
	ProgressSvc progress.Service
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(p.Conf.Server.Address, nil, &echoapi.Deps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		UserSvc:     p.UserSvc,
		SubjectSvc:  p.SubjectSvc,
		SlotSvc:     p.SlotSvc,
		TaskSvc:     p.TaskSvc,
		GoalSvc:     p.GoalSvc,
		ProgressSvc: p.ProgressSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newCoreDB))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newValidator))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(
		new(user.Repository),
		new(task.UserGetter),
		new(progress.UserLister),
	)))
	must(c.Provide(sqlxrepos.NewSubjectRepository, dig.As(
		new(subject.Repository),
		new(planner.SubjectGetter),
		new(task.SubjectGetter),
		new(goal.SubjectGetter),
		new(progress.SubjectGetter),
	)))
	must(c.Provide(sqlxrepos.NewSlotRepository, dig.As(
		new(planner.Repository),
		new(task.SlotLister),
		new(progress.SlotLister),
	)))
	must(c.Provide(sqlxrepos.NewTaskRepository, dig.As(new(task.Repository))))
	must(c.Provide(sqlxrepos.NewGoalRepository, dig.As(new(goal.Repository))))
	must(c.Provide(sqlxrepos.NewProgressRepository, dig.As(new(progress.Repository))))
	must(c.Provide(func(db core.DB) progress.ReportRepository {
		return boiledrepos.NewReportRepository(db)
	}))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(subject.NewService))
	must(c.Provide(planner.NewService))
	must(c.Provide(task.NewService))
	must(c.Provide(goal.NewService))
	must(c.Provide(progress.NewService))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
