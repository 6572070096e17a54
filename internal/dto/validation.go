package dto

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to a human readable message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (e FieldErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

const passwordSpecials = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("notblank", isNotBlank))
	must(v.RegisterValidation("username", isUsername))
	must(v.RegisterValidation("strongpassword", isStrongPassword))
	must(v.RegisterValidation("halfstep", isHalfStep))
	must(v.RegisterValidation("nonzero", isNonZero))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Struct runs the validate tags on s and returns one message per failing
// JSON field, or nil when s is valid.
func Struct(s any) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"body": err.Error()}
	}

	errs := FieldErrors{}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	name := label(fe.StructField())
	numeric := isNumber(fe.Kind())

	switch fe.Tag() {
	case "required", "notblank", "nonzero":
		return name + " is required"
	case "required_without":
		return fmt.Sprintf("%s or %s is required", name, strings.ToLower(label(fe.Param())))
	case "min":
		if numeric {
			return fmt.Sprintf("%s must be at least %s", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		if numeric {
			return fmt.Sprintf("%s must be at most %s", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "email":
		return name + " should be valid"
	case "username":
		return name + " must not contain spaces or @"
	case "strongpassword":
		return name + " must contain at least one uppercase letter, one lowercase letter, one number and one special character"
	case "halfstep":
		return name + " must be in steps of 0.5"
	}
	return name + " is invalid"
}

// label turns a Go field name into words: UsernameOrEmail becomes
// "Username or email", AuthorID becomes "Author ID".
func label(field string) string {
	runes := []rune(field)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	words = append(words, string(runes[start:]))

	for i := 1; i < len(words); i++ {
		if strings.ToUpper(words[i]) != words[i] {
			words[i] = strings.ToLower(words[i])
		}
	}
	return strings.Join(words, " ")
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func isUsername(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), " \t\n@")
}

// isStrongPassword requires at least one upper case letter, one lower case
// letter, one digit and one special character.
func isStrongPassword(fl validator.FieldLevel) bool {
	var upper, lower, digit, special bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

func isHalfStep(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f*2 == math.Trunc(f*2)
}

// isNonZero rejects zero values that required lets through behind a
// pointer, such as a nil UUID in a partial update.
func isNonZero(fl validator.FieldLevel) bool {
	return !fl.Field().IsZero()
}
