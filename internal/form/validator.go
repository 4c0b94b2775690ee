package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/aquascene/waitlist/internal/dto"
	"github.com/aquascene/waitlist/internal/entity"
	gerr "github.com/aquascene/waitlist/internal/errors"
	"github.com/asaskevich/govalidator"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		mustRegister(v, "mailbox", func(fl validator.FieldLevel) bool {
			return govalidator.IsEmail(fl.Field().String())
		})
		mustRegister(v, "experience", func(fl validator.FieldLevel) bool {
			return entity.IsValidExperienceLevel(fl.Field().String())
		})
		mustRegister(v, "interest", func(fl validator.FieldLevel) bool {
			return entity.IsValidInterest(fl.Field().String())
		})
		mustRegister(v, "locale", func(fl validator.FieldLevel) bool {
			return entity.IsValidLocale(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("can't register %q validator: %v", tag, err))
	}
}

// ValidateWaitlistRequest normalizes and validates a signup body. The returned
// error is an InvalidArgument status carrying one violation per field.
func ValidateWaitlistRequest(req *dto.WaitlistRequest) error {
	req.Normalize()

	err := get().Struct(req)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("can't validate waitlist request: %w", err)
	}

	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		field := fieldName(fe)
		if _, ok := fields[field]; ok {
			continue
		}
		fields[field] = formatErrMsg(message(field, fe))
	}
	return gerr.NewValidation(fields)
}

// fieldName folds slice elements (interests[2]) into their field.
func fieldName(fe validator.FieldError) string {
	f := fe.Field()
	if i := strings.IndexByte(f, '['); i >= 0 {
		f = f[:i]
	}
	return f
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("select at most %s %s", fe.Param(), field)
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "mailbox":
		return "invalid email address"
	case "experience":
		return "please select a valid experience level"
	case "interest":
		return fmt.Sprintf("unknown interest %q", fe.Value())
	case "unique":
		return "interests must not repeat"
	case "locale":
		return "unsupported locale"
	}
	return fmt.Sprintf("%s is invalid", field)
}

func formatErrMsg(s string) string {
	return ucfirst(strings.Trim(s, " .")) + "."
}

func ucfirst(str string) string {
	for i, v := range str {
		return string(unicode.ToUpper(v)) + str[i+1:]
	}
	return ""
}
