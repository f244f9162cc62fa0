package helper

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const PasswordPolicyMessage = "Password must start with a capital letter and contain at least one special character."

var (
	passwordStart   = regexp.MustCompile(`^[A-Z]`)
	passwordSpecial = regexp.MustCompile(`[\W_]`)

	validateOnce sync.Once
	validate     *validator.Validate
)

type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidPassword is the registration password policy: an uppercase first
// letter and at least one non-word character.
func ValidPassword(p string) bool {
	return passwordStart.MatchString(p) && passwordSpecial.MatchString(p)
}

// ValidateStruct runs the validate tags of s. The returned AppError carries
// every failing field; its message names the first missing field, or the first
// other failure when nothing is missing.
func ValidateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	fields := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}

	msg := fields[0].Message
	for _, f := range fields {
		if f.Tag == "required" {
			msg = f.Message
			break
		}
	}

	return &AppError{Kind: KindValidation, Message: msg, Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required!"
	case "password_policy":
		return PasswordPolicyMessage
	default:
		return fe.Field() + " is invalid"
	}
}

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("password_policy", func(fl validator.FieldLevel) bool {
			return ValidPassword(fl.Field().String())
		})
	})
	return validate
}
