package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/planner"
	"github.com/trezcool/ratiba/core/subject"
	"github.com/trezcool/ratiba/core/user"
	appfs "github.com/trezcool/ratiba/fs"
	emailsvc "github.com/trezcool/ratiba/services/email"
	logsvc "github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/storage/database"
)

// NewConfig returns a TEST configuration backed by an in-memory sqlite database.
func NewConfig() *core.Config {
	conf := &core.Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "Ratiba",
		SecretKey:        "test-secret-key",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: "noreply@ratiba.test",
		Timezone:         "UTC",
		Server: core.ServerConfig{
			Host:               "localhost",
			Address:            ":0",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Database: core.DatabaseConfig{
			Engine: core.EngineSQLite,
			Path:   ":memory:",
		},
	}
	if err := conf.Validate(); err != nil {
		log.Fatalf("testutil.NewConfig: %v", err)
	}
	return conf
}

func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return validate, translator
}

// NewMailer loads the email templates and returns a mailer recording what it sends.
func NewMailer(conf *core.Config, logger core.Logger) *emailsvc.ConsoleServiceMock {
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)
	return emailsvc.NewConsoleServiceMock(conf, logger)
}

// PrepareDB opens a fresh, migrated database closed at the end of the test.
func PrepareDB(t *testing.T, conf *core.Config) *sqlx.DB {
	t.Helper()
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB, conf.Database.Engine); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, repo user.Repository, name, email string, isActive ...bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	active := true
	if len(isActive) > 0 {
		active = isActive[0]
	}
	usr, err := repo.CreateUser(context.Background(), user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSubject(t *testing.T, repo subject.Repository, userID, name string) subject.Subject {
	t.Helper()
	now := time.Now().UTC()
	sub, err := repo.CreateSubject(context.Background(), subject.Subject{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Color:     subject.DefaultColor,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

// CreateSlot stores an active slot as is, without conflict checks. An empty subjectID leaves it unassigned.
func CreateSlot(t *testing.T, repo planner.Repository, userID, subjectID string, day int, start, end string) planner.Slot {
	t.Helper()
	now := time.Now().UTC()
	slot := planner.Slot{
		ID:        uuid.New().String(),
		UserID:    userID,
		SubjectID: null.NewString(subjectID, subjectID != ""),
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if mins, err := planner.DurationMinutes(start, end); err == nil {
		slot.DurationMinutes = null.IntFrom(mins)
	}
	slot, err := repo.CreateSlot(context.Background(), slot)
	if err != nil {
		t.Fatalf("CreateSlot() failed: %v", err)
	}
	return slot
}

func IntPtr(i int) *int { return &i }

func StrPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }

func FloatPtr(f float64) *float64 { return &f }
