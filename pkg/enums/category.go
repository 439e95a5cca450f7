package enums

import "fmt"

// Category classifies the subject matter of a message.
type Category string

const (
	CategoryClinico        Category = "CLINICO"
	CategoryAdministrativo Category = "ADMINISTRATIVO"
	CategoryFinanceiro     Category = "FINANCEIRO"
	// CategoryUrgencia is sent by the front-end alongside the documented set.
	CategoryUrgencia Category = "URGENCIA"
)

var validCategories = []Category{
	CategoryClinico,
	CategoryAdministrativo,
	CategoryFinanceiro,
	CategoryUrgencia,
}

// IsValid checks whether the category matches the canonical enum.
func (c Category) IsValid() bool {
	for _, candidate := range validCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCategory converts raw strings into Category.
func ParseCategory(value string) (Category, error) {
	for _, candidate := range validCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", value)
}
