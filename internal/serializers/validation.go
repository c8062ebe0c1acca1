// Package serializers maps HTTP payloads to service inputs and entities to
// response bodies. Every exposed field is listed explicitly.
package serializers

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const nonFieldErrors = "non_field_errors"

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return services.ValidUsername(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

// BindJSON decodes and validates the request body into obj. An empty body
// is validated as an empty object so that missing fields are reported per
// field.
func BindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err != nil {
		return FromBindingError(err)
	}
	return nil
}

// FromBindingError converts decoder and validator failures into a
// ValidationError keyed by JSON field name.
func FromBindingError(err error) *services.ValidationError {
	verr := services.NewValidationError()

	var fieldErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), fieldMessage(fe))
		}
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = nonFieldErrors
		}
		verr.Add(field, typeMessage(typeErr.Type))
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		verr.Add(nonFieldErrors, "JSON parse error.")
	default:
		verr.Add(nonFieldErrors, "Invalid data.")
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return services.MsgRequired
	case "notblank":
		return services.MsgBlank
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "email":
		return services.MsgInvalidEmail
	case "username":
		return services.MsgUsernameChars
	default:
		return "Invalid value."
	}
}

func typeMessage(t reflect.Type) string {
	if t == nil {
		return "Invalid value."
	}
	switch t.Kind() {
	case reflect.Bool:
		return "Must be a valid boolean."
	case reflect.String:
		return "Not a valid string."
	default:
		return "Invalid value."
	}
}
