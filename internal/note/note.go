// Package note is a small notes repository used by the HTTP service. Its
// failures are classified with internal/shared so the error translator can
// turn them into responses.
package note

import (
	"embed"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Migrations holds the schema for every supported driver, under
// migrations/<driver>.
//
//go:embed migrations
var Migrations embed.FS

// MigrationsDir returns the directory inside Migrations for driver.
func MigrationsDir(driver string) string { return "migrations/" + driver }

// MaxListLimit caps List.
const MaxListLimit = 100

// Note is a stored note.
type Note struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateInput is the payload of a new note.
type CreateInput struct {
	Slug  string `json:"slug" validate:"required,max=64,slug"`
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"max=10000"`
}

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks in and returns a message suitable for the client, or "".
func (in CreateInput) Validate() string {
	if err := validate.Struct(in); err != nil {
		return validationMessage(err)
	}
	return ""
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid note"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "slug":
		return fe.Field() + " must be lowercase letters and digits separated by single dashes"
	default:
		return fe.Field() + " is invalid"
	}
}
