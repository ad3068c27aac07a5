package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/metadata"
	"github.com/go-playground/validator/v10"
)

var (
	dialectNames = []string{"sqlserver", "mysql", "oracle", "sqlite", "postgresql"}
	namingNames  = []string{"none", "snake", "plural_snake"}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their koanf key so errors name sql.dialect, not SQL.Dialect.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	must(v.RegisterValidation("dialect", func(fl validator.FieldLevel) bool {
		_, err := dialect.Parse(fl.Field().String())
		return err == nil
	}))
	must(v.RegisterValidation("naming", func(fl validator.FieldLevel) bool {
		_, err := metadata.ParseNaming(fl.Field().String())
		return err == nil
	}))
	must(v.RegisterValidation("serverversion", func(fl validator.FieldLevel) bool {
		_, ok := dialect.MajorVersion(fl.Field().String())
		return ok
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Validate checks cfg and returns a *ConfigError describing the first invalid field.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return toConfigError(fieldErrs[0])
}

func toConfigError(fe validator.FieldError) *ConfigError {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "dialect":
		return NewInvalidFieldError(field, fmt.Sprintf("unknown dialect %q", fe.Value()), dialectNames)
	case "naming":
		return NewInvalidFieldError(field, fmt.Sprintf("unknown naming strategy %q", fe.Value()), namingNames)
	case "serverversion":
		return NewInvalidFieldError(field, fmt.Sprintf("unparsable server version %q", fe.Value()), nil)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value %q", fe.Value()), strings.Fields(fe.Param()))
	}
	return NewInvalidFieldError(field, fmt.Sprintf("failed %s validation", fe.Tag()), nil)
}
