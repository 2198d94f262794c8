// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"pocketledger/internal/models"
)

// MonthLayout is the request format for a budget month.
const MonthLayout = "2006-01"

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(requestFieldName)
		_ = v.RegisterValidation("category_type", validateCategoryType)
		_ = v.RegisterValidation("budget_month", validateBudgetMonth)
	}
}

// requestFieldName reports fields by their json (or form) name so that
// validation errors point at what the client sent.
func requestFieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func validateCategoryType(fl validator.FieldLevel) bool {
	return models.CategoryType(fl.Field().String()).Valid()
}

func validateBudgetMonth(fl validator.FieldLevel) bool {
	_, err := time.Parse(MonthLayout, fl.Field().String())
	return err == nil
}

// ParseMonth parses a YYYY-MM month into the first instant of that month in UTC.
func ParseMonth(s string) (time.Time, error) {
	return time.Parse(MonthLayout, s)
}
