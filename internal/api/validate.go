package api

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	errprocess "social_network_client/pkg/err"

	"github.com/go-playground/validator/v10"
)

// BirthdayLayout dateOfBirth wire format
const BirthdayLayout = "2006-01-02"

var (
	emailPattern    = regexp.MustCompile(`(?i)^[A-Z0-9][A-Z0-9._%+-]{0,63}@(?:[A-Z0-9-]{1,63}\.){1,15}[A-Z]{2,63}$`)
	nicknamePattern = regexp.MustCompile(`^[a-zA-Z0-9._ ]{0,32}$`)
	// RE2 沒有 lookahead, 四個字元類別分開檢查
	passwordClasses = []*regexp.Regexp{
		regexp.MustCompile(`[a-z]`),
		regexp.MustCompile(`[A-Z]`),
		regexp.MustCompile(`[0-9]`),
		regexp.MustCompile(`[!@#$%^&*]`),
	}

	timeNow = time.Now

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	must("signup_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	must("strong_password", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, re := range passwordClasses {
			if !re.MatchString(s) {
				return false
			}
		}
		return true
	})
	must("nickname", func(fl validator.FieldLevel) bool {
		return nicknamePattern.MatchString(fl.Field().String())
	})
	must("min_age", func(fl validator.FieldLevel) bool {
		years, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		birthday, err := time.Parse(BirthdayLayout, fl.Field().String())
		if err != nil {
			return false
		}
		now := timeNow()
		limit := time.Date(now.Year()-years, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return birthday.Before(limit)
	})
	return v
}

// messages field (or Form.field) → tag → text shown to the user
var messages = map[string]map[string]string{
	"email": {
		"required":     "Please enter your email address",
		"signup_email": "The email address should be in form of example@example.com",
	},
	"password": {
		"required":        "Please enter your password",
		"min":             "The password should be at least 8 characters long",
		"strong_password": "The password should have at least one lowercase and one uppercase letter, a number and a symbol",
	},
	"confirmPassword": {
		"required": "Please enter your password again",
		"eqfield":  "The passwords do not match",
	},
	"firstName": {
		"required": "Please enter your first name",
	},
	"lastName": {
		"required": "Please enter your last name",
	},
	"dateOfBirth": {
		"required": "Please enter your birth date",
		"min_age":  "You must be 13 years of age or older to sign up",
	},
	"nickname": {
		"max":      "A nickname should not be longer than 32 characters long",
		"nickname": "A nickname can only contain letters, numbers, spaces, dots (.) and underscores (_)",
	},
	"content": {
		"required": "Enter your message",
	},
	"privacyType": {
		"required": "Select a privacy type for your post",
		"min":      "Select a privacy type for your post",
		"max":      "Select a privacy type for your post",
	},
	"CommentForm.content": {
		"required": CommentLengthMessage,
		"max":      CommentLengthMessage,
	},
}

func messageFor(fe validator.FieldError) string {
	for _, key := range []string{fe.Namespace(), fe.Field()} {
		if byTag, ok := messages[key]; ok {
			if msg, ok := byTag[fe.Tag()]; ok {
				return msg
			}
		}
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// validateForm run the struct rules, failures come back as errprocess.ValidationErrors
func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := make(errprocess.ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, errprocess.FieldError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return out
}
