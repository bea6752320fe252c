package serverutils

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"ai-interview-be/internal/entity"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	_ = v.RegisterValidation("interview_domain", func(fl validator.FieldLevel) bool {
		return entity.Domain(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return entity.Difficulty(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		return entity.QuestionType(fl.Field().String()).Valid()
	})
	return v
}

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrors))}
	for _, fe := range fieldErrors {
		out.Fields[fieldPath(fe)] = formatFieldError(fe)
	}
	return out
}

// fieldPath drops the struct name prefix: "CreateSessionRequest.type_rotation[0]"
// becomes "type_rotation[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatFieldError(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	case "interview_domain":
		return fmt.Sprintf("%s must be one of %s", field, joinEnum(entity.AllDomains))
	case "difficulty":
		return fmt.Sprintf("%s must be one of %s", field, joinEnum(entity.DifficultyTiers))
	case "question_type":
		return fmt.Sprintf("%s must be one of %s", field, joinEnum(entity.AllQuestionTypes))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
