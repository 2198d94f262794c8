package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type categoryRequest struct {
	Type string `validate:"required,category_type"`
}

type budgetRequest struct {
	Month string `validate:"required,budget_month"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	if err := v.RegisterValidation("category_type", validateCategoryType); err != nil {
		t.Fatalf("register category_type: %v", err)
	}
	if err := v.RegisterValidation("budget_month", validateBudgetMonth); err != nil {
		t.Fatalf("register budget_month: %v", err)
	}
	return v
}

func TestCategoryType(t *testing.T) {
	v := newValidate(t)
	tests := []struct {
		value string
		valid bool
	}{
		{"Income", true},
		{"Expense", true},
		{"income", false},
		{"Transfer", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := v.Struct(categoryRequest{Type: tt.value})
			if (err == nil) != tt.valid {
				t.Errorf("category_type(%q): expected valid=%v, got err=%v", tt.value, tt.valid, err)
			}
		})
	}
}

func TestBudgetMonth(t *testing.T) {
	v := newValidate(t)
	tests := []struct {
		value string
		valid bool
	}{
		{"2025-03", true},
		{"2025-12", true},
		{"2025-13", false},
		{"2025-3", false},
		{"2025-03-01", false},
		{"March", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := v.Struct(budgetRequest{Month: tt.value})
			if (err == nil) != tt.valid {
				t.Errorf("budget_month(%q): expected valid=%v, got err=%v", tt.value, tt.valid, err)
			}
		})
	}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Day() != 1 || m.Month() != 3 || m.Year() != 2025 {
		t.Errorf("unexpected month %s", m)
	}
}

func TestRequestFieldName(t *testing.T) {
	type req struct {
		CategoryID uint   `json:"category_id,omitempty" validate:"required"`
		Month      string `form:"month" validate:"required"`
		Plain      string `validate:"required"`
	}

	v := validator.New()
	v.RegisterTagNameFunc(requestFieldName)

	err := v.Struct(req{})
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %v", err)
	}
	want := []string{"category_id", "month", "Plain"}
	for i, fe := range errs {
		if fe.Field() != want[i] {
			t.Errorf("error %d: expected field %q, got %q", i, want[i], fe.Field())
		}
	}
}
