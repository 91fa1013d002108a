package dto

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	githubLoginPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-(?:[A-Za-z0-9])){0,38}$`)
	githubURLPattern   = regexp.MustCompile(`^(?i:https?://)?(?i:www\.)?(?i:github\.com)/([A-Za-z0-9-]+)(?:[/?#].*)?$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("roster_entry", validateRosterEntry)
}

func GetValidator() *validator.Validate {
	return validate
}

type ValidationError struct {
	Field   string `json:"field" example:"query"`
	Message string `json:"message" example:"query is required"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code" example:"400"`
	Message string            `json:"message" example:"Validation failed"`
	Errors  []ValidationError `json:"errors"`
}

// RosterHandle extracts a GitHub login from a roster entry. Accepted forms
// are a profile URL (https://github.com/<login>[/...]), "@login" or a bare
// login. ok is false when nothing usable can be extracted.
func RosterHandle(entry string) (string, bool) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return "", false
	}

	if m := githubURLPattern.FindStringSubmatch(entry); len(m) > 1 {
		entry = m[1]
	} else {
		entry = strings.TrimPrefix(entry, "@")
	}

	if !githubLoginPattern.MatchString(entry) {
		return "", false
	}
	return entry, true
}

func validateRosterEntry(fl validator.FieldLevel) bool {
	_, ok := RosterHandle(fl.Field().String())
	return ok
}

func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "min":
				message = fieldError.Field() + " must have at least " + fieldError.Param() + " item(s) or characters"
			case "max":
				message = fieldError.Field() + " must have at most " + fieldError.Param() + " item(s) or characters"
			case "roster_entry":
				message = fieldError.Field() + " must be a GitHub profile URL or username"
			case "url":
				message = fieldError.Field() + " must be a valid URL"
			case "dive":
				message = fieldError.Field() + " contains invalid items"
			default:
				message = fieldError.Field() + " is invalid"
			}

			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errors
}

type Validator interface {
	Validate() error
}

func CreateValidationErrorResponse(err error) ValidationErrorResponse {
	return ValidationErrorResponse{
		Code:    400,
		Message: "Validation failed",
		Errors:  FormatValidationErrors(err),
	}
}
