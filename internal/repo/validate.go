package repo

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/crucial707/messagely/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
)

// Postgres error codes the stores translate.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// maxbytes caps a string's encoded length; max counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// validateStruct returns a KindBadRequest error listing each failing field.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "required"
		case "max":
			fields[fe.Field()] = "must be at most " + fe.Param() + " characters"
		case "maxbytes":
			fields[fe.Field()] = "must be at most " + fe.Param() + " bytes"
		default:
			fields[fe.Field()] = "invalid"
		}
	}
	return apperr.Validation(fields)
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
