package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite file or ":memory:"
	}

	LogConfig struct {
		File       string // empty: stdout only
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}

	// Config is resolved once at startup and shared read-only by every component.
	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail string
		Timezone         string
		Location         *time.Location

		Server   ServerConfig
		Database DatabaseConfig
		Log      LogConfig
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

func (c *Config) DefaultFrom() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

// Today returns the current calendar date in the configured timezone.
func (c *Config) Today() Date {
	return DateOf(time.Now().In(c.Location))
}

func newViper(env string) *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Ratiba")
	v.SetDefault("secretKey", "zq*8w!w1m-6b@(vj1x#k*d8bq0c^t#n9g=3c5u%z$l&ah2yo_v")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("timezone", "Local")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "ratiba")
	v.SetDefault("database.user", "ratiba")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "ratiba.db")

	v.SetDefault("log.file", "")
	v.SetDefault("log.maxSizeMB", 50)
	v.SetDefault("log.maxBackups", 5)
	v.SetDefault("log.maxAgeDays", 28)

	if env == "TEST" {
		v.SetDefault("testMode", true)
		v.SetDefault("database.engine", "sqlite")
		v.SetDefault("database.path", ":memory:")
	}

	// DEV_DATABASE_NAME -> database.name
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the configuration for the current ENV: DEV (local; default), TEST, QA, PROD.
// A config/.env.<env> file is loaded first when it exists.
func LoadConfig() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	dotEnvPath := fmt.Sprintf("config/.env.%s", strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}

	v := newViper(env)
	conf := &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		Timezone:         v.GetString("timezone"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database.engine")),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
		},
		Log: LogConfig{
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.maxSizeMB"),
			MaxBackups: v.GetInt("log.maxBackups"),
			MaxAgeDays: v.GetInt("log.maxAgeDays"),
		},
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// NewConfig is LoadConfig for callers that cannot start without a valid configuration.
func NewConfig() *Config {
	conf, err := LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

// Validate checks required values and resolves Location from Timezone.
func (c *Config) Validate() (err error) {
	if err = vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.AppName, "appName"),
		vala.StringNotEmpty(c.SecretKey, "secretKey"),
		vala.StringNotEmpty(c.Server.Address, "server.address"),
		vala.StringNotEmpty(c.Database.Engine, "database.engine"),
	).Check(); err != nil {
		return errors.Wrap(err, "validating config")
	}

	switch c.Database.Engine {
	case EnginePostgres:
		if err = vala.BeginValidation().Validate(
			vala.StringNotEmpty(c.Database.Host, "database.host"),
			vala.StringNotEmpty(c.Database.Name, "database.name"),
		).Check(); err != nil {
			return errors.Wrap(err, "validating database config")
		}
	case EngineSQLite:
		if c.Database.Path == "" {
			return errors.New("validating database config: database.path is required for sqlite")
		}
	default:
		return errors.Errorf("validating database config: unsupported engine %q", c.Database.Engine)
	}

	if c.Timezone == "" || c.Timezone == "Local" {
		c.Location = time.Local
	} else if c.Location, err = time.LoadLocation(c.Timezone); err != nil {
		return errors.Wrapf(err, "loading timezone %q", c.Timezone)
	}
	return nil
}

const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)
