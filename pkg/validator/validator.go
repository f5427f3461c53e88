package validator

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"

	"anoa.com/devconnector/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// DateLayouts are the accepted shapes for date fields, tried in order.
var DateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

var setupOnce sync.Once

// Setup configures gin's validator engine: errors report JSON field names
// and the "date" rule is available to binding tags.
func Setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			_, err := ParseDate(s)
			return err == nil
		})
	})
}

// ParseDate parses a date in any of DateLayouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// BindJSON binds the request body into obj and runs every declared
// constraint. An empty body is validated as a zero value so the caller still
// gets the full violation list. It returns nil when the body is valid.
func BindJSON(c *gin.Context, obj any) []apperror.FieldError {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return nil
	}
	return Violations(err)
}

// Violations converts a binding error into an ordered list of field errors.
func Violations(err error) []apperror.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []apperror.FieldError{{Msg: "Invalid request body"}}
	}

	out := make([]apperror.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		out = append(out, apperror.FieldError{
			Param: fe.Field(),
			Msg:   getFieldErrorMessage(fe),
		})
	}
	return out
}

var fieldMessages = map[string]string{
	"name.required":         "Name is required",
	"email.required":        "Please include a valid email",
	"email.email":           "Please include a valid email",
	"password.required":     "Please enter password",
	"password.min":          "Please enter a password with 6 or more characters",
	"password.max":          "Please enter a password with 72 or fewer bytes",
	"status.required":       "Status is required",
	"skills.required":       "Skills are required",
	"title.required":        "Title is required",
	"company.required":      "Company is required",
	"school.required":       "School is required",
	"degree.required":       "Degree is required",
	"fieldofstudy.required": "Field of study is required",
	"from.required":         "From date is required",
	"text.required":         "Text is required",
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	if msg, ok := fieldMessages[field+"."+fe.Tag()]; ok {
		return msg
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please include a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "date":
		return fmt.Sprintf("%s must be a valid date", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
