package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ValidationIssue is one entry of a list-form error detail
type ValidationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func respondDetail(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

func respondInternal(c *gin.Context) {
	respondDetail(c, http.StatusInternalServerError, "Internal server error")
}

func respondIssues(c *gin.Context, issues []ValidationIssue) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": issues})
}

// newValidator returns a validator that reports JSON field names and knows
// the password strength rule.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// At least 8 characters with a letter and a digit
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if len(value) < 8 {
			return false
		}
		var letter, digit bool
		for _, r := range value {
			switch {
			case unicode.IsLetter(r):
				letter = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return letter && digit
	})

	return v
}

// bindJSON decodes and validates the request body. On failure it writes a
// 422 list-form detail and returns false.
func (s *Server) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondIssues(c, []ValidationIssue{{
			Loc:  []string{"body"},
			Msg:  "Invalid JSON body",
			Type: "value_error.jsondecode",
		}})
		return false
	}

	if err := s.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			s.logger.Error().Err(err).Msg("Validator failed")
			respondInternal(c)
			return false
		}
		respondIssues(c, validationIssues(verrs))
		return false
	}
	return true
}

func validationIssues(verrs validator.ValidationErrors) []ValidationIssue {
	issues := make([]ValidationIssue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, ValidationIssue{
			Loc:  []string{"body", fe.Field()},
			Msg:  issueMessage(fe),
			Type: "value_error." + fe.Tag(),
		})
	}
	return issues
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field required"
	case "email":
		return "Value is not a valid email address"
	case "password":
		return "Password must be at least 8 characters and contain a letter and a digit"
	case "oneof":
		return fmt.Sprintf("Value must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("Value must be at most %s characters", fe.Param())
	}
	return fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
}
