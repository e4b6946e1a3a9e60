package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"git.handmade.network/hmn/forumsync/src/oops"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Environment string

const (
	Live Environment = "live"
	Dev  Environment = "dev"
	Test Environment = "test"
)

type StoreDriver string

const (
	DriverMemory   StoreDriver = "memory"
	DriverSQLite   StoreDriver = "sqlite"
	DriverPostgres StoreDriver = "postgres"
)

type ForumsyncConfig struct {
	Env       Environment
	LogLevel  zerolog.Level
	LogFormat string
	BaseUrl   string
	Timezone  string

	PostsPerPage int

	Store StoreConfig
}

type StoreConfig struct {
	Driver     StoreDriver
	SQLitePath string
	BatchSize  int
	Postgres   PostgresConfig
}

type PostgresConfig struct {
	User     string
	Password string
	Hostname string
	Port     int
	DbName   string
	LogLevel zerolog.Level
	MinConn  int32
	MaxConn  int32
}

func (info PostgresConfig) DSN() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%d dbname=%s", info.User, info.Password, info.Hostname, info.Port, info.DbName)
}

func (c ForumsyncConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

const EnvPrefix = "FORUMSYNC"

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", string(Dev))
	v.SetDefault("loglevel", "info")
	v.SetDefault("logformat", "pretty")
	v.SetDefault("baseurl", "https://forums.somethingawful.com/")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("postsperpage", 40)
	v.SetDefault("store.driver", string(DriverSQLite))
	v.SetDefault("store.sqlitepath", "forumsync.db")
	v.SetDefault("store.batchsize", 500)
	v.SetDefault("store.postgres.hostname", "localhost")
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.dbname", "forumsync")
	v.SetDefault("store.postgres.loglevel", "warn")
	v.SetDefault("store.postgres.minconn", 1)
	v.SetDefault("store.postgres.maxconn", 4)
}

/*
Loads the configuration. Values come from, in increasing priority: built-in
defaults, the YAML file at path (or ./forumsync.yaml if path is empty and the
file exists), then FORUMSYNC_* environment variables. A .env file in the
working directory is loaded into the environment first if there is one.
*/
func Load(path string) (ForumsyncConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ForumsyncConfig{}, oops.New(err, "failed to load .env file")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return ForumsyncConfig{}, oops.New(err, "failed to read config file %s", path)
		}
	} else {
		v.SetConfigName("forumsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return ForumsyncConfig{}, oops.New(err, "failed to read config file")
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (ForumsyncConfig, error) {
	logLevel, err := zerolog.ParseLevel(v.GetString("loglevel"))
	if err != nil {
		return ForumsyncConfig{}, oops.New(err, "invalid log level")
	}
	pgLogLevel, err := zerolog.ParseLevel(v.GetString("store.postgres.loglevel"))
	if err != nil {
		return ForumsyncConfig{}, oops.New(err, "invalid postgres log level")
	}

	cfg := ForumsyncConfig{
		Env:          Environment(v.GetString("env")),
		LogLevel:     logLevel,
		LogFormat:    v.GetString("logformat"),
		BaseUrl:      v.GetString("baseurl"),
		Timezone:     v.GetString("timezone"),
		PostsPerPage: v.GetInt("postsperpage"),
		Store: StoreConfig{
			Driver:     StoreDriver(v.GetString("store.driver")),
			SQLitePath: v.GetString("store.sqlitepath"),
			BatchSize:  v.GetInt("store.batchsize"),
			Postgres: PostgresConfig{
				User:     v.GetString("store.postgres.user"),
				Password: v.GetString("store.postgres.password"),
				Hostname: v.GetString("store.postgres.hostname"),
				Port:     v.GetInt("store.postgres.port"),
				DbName:   v.GetString("store.postgres.dbname"),
				LogLevel: pgLogLevel,
				MinConn:  v.GetInt32("store.postgres.minconn"),
				MaxConn:  v.GetInt32("store.postgres.maxconn"),
			},
		},
	}

	switch cfg.Store.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return ForumsyncConfig{}, oops.New(nil, "unknown store driver %q", cfg.Store.Driver)
	}
	if cfg.PostsPerPage <= 0 {
		return ForumsyncConfig{}, oops.New(nil, "postsperpage must be positive, got %d", cfg.PostsPerPage)
	}
	if cfg.Store.BatchSize <= 0 {
		return ForumsyncConfig{}, oops.New(nil, "store.batchsize must be positive, got %d", cfg.Store.BatchSize)
	}

	return cfg, nil
}

// The configuration used when nothing has been loaded, e.g. in tests.
func Default() ForumsyncConfig {
	v := viper.New()
	setDefaults(v)
	cfg, err := fromViper(v)
	if err != nil {
		panic(err)
	}
	return cfg
}
