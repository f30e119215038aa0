package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
)

// validate checks decoded request bodies and query parameters. Errors name
// fields by their JSON key.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	enums := map[string]func(string) bool{
		"sexe":     func(s string) bool { return comhodl.Sex(s).Valid() },
		"family":   func(s string) bool { return comhodl.FamilySituation(s).Valid() },
		"activity": func(s string) bool { return comhodl.Activity(s).Valid() },
	}
	for tag, valid := range enums {
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return valid(fl.Field().String())
		})
		if err != nil {
			panic(err)
		}
	}
	return v
}

// validationMessage describes the first rule err reports as broken.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "required_with":
		return fmt.Sprintf("%s and %s must be given together", fe.Field(), strings.ToLower(fe.Param()))
	case "min":
		if fe.Kind() == reflect.Slice {
			return fe.Field() + " must not be empty"
		}
	case "activity":
		return fmt.Sprintf("invalid activity %v", fe.Value())
	}
	return "invalid " + fe.Field()
}

// failedOn reports whether the first broken rule of err is tag on field.
func failedOn(err error, field, tag string) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve) && len(ve) > 0 && ve[0].Field() == field && ve[0].Tag() == tag
}
