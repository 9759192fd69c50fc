package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"dynhttp/pkg/httperr"
)

// Config holds application configuration values.
type Config struct {
	Env  string `validate:"required,oneof=dev prod"`
	HTTP struct {
		Addr string `validate:"required"`
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
	DB struct {
		Driver     string `validate:"required,oneof=sqlite postgres"`
		Path       string `validate:"required_if=Driver sqlite"`
		DSN        string `validate:"required_if=Driver postgres"`
		Migrations string
	}
	Errors struct {
		EnableLogging      bool
		HideInternalDetail bool
		Renderer           string `validate:"required,oneof=text json problem"`
	}
}

var validate = validator.New()

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	c.Env = getenv("ENV", "prod")
	c.HTTP.Addr = getenv("HTTP_ADDR", ":8080")
	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = os.Getenv("LOG_FILE")
	c.DB.Driver = strings.ToLower(getenv("DB_DRIVER", "sqlite"))
	c.DB.Path = getenv("DB_PATH", "data/notes.db")
	c.DB.DSN = os.Getenv("DB_DSN")
	c.DB.Migrations = os.Getenv("DB_MIGRATIONS")
	c.Errors.Renderer = strings.ToLower(getenv("HTTPERR_RENDERER", "text"))

	var err error
	if c.Errors.EnableLogging, err = getbool("HTTPERR_ENABLE_LOGGING", true); err != nil {
		return Config{}, err
	}
	// Internal error text is only shown to clients in dev unless asked for.
	if c.Errors.HideInternalDetail, err = getbool("HTTPERR_HIDE_INTERNAL_DETAIL", c.Env != "dev"); err != nil {
		return Config{}, err
	}

	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ErrorOptions returns the options for the error translator.
func (c Config) ErrorOptions() httperr.Options {
	return httperr.Options{
		EnableLogging:      c.Errors.EnableLogging,
		HideInternalDetail: c.Errors.HideInternalDetail,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(k + " must be a boolean, got " + strconv.Quote(v))
	}
	return b, nil
}
