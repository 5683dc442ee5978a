package models

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(Enum)
		return ok && value.IsValid()
	})
	return v
}

// Validate checks value against its validate tags and returns a 400 describing every failed rule.
func Validate(value any) error {
	if err := validate.Struct(value); err != nil {
		return httperror.WrapError(http.StatusBadRequest, ValidationErrorToString(value, err))
	}
	return nil
}

func ValidationErrorToString(input any, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msg := ""
	for _, fe := range verrs {
		if fe.Param() != "" {
			msg += fmt.Sprintf("\n • Failed %T validation for field '%s': rule '%s' expected '%s', got '%v'.", input, fe.Field(), fe.Tag(), fe.Param(), fe.Value())
			continue
		}
		msg += fmt.Sprintf("\n • Failed %T validation for field '%s': rule '%s', got '%v'.", input, fe.Field(), fe.Tag(), fe.Value())
	}
	return errors.New(msg)
}
