// Package models defines the public "get featured" submission forms. Each
// form variant validates itself and produces the application record the
// moderation queue works on.
package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	modmodels "civicportal/internal/moderation/models"
	dErrors "civicportal/pkg/domain-errors"
)

// CategoryShops is the single category served by the shop form; all other
// categories use the food form.
const CategoryShops = "shops"

var foodCategories = map[string]struct{}{
	"bakeries":           {},
	"breweries_pubs":     {},
	"cafés_coffee_shops": {},
	"ice_cream_gelato":   {},
	"restaurants":        {},
}

// Categories lists every accepted category, food first.
func Categories() []string {
	out := make([]string, 0, len(foodCategories)+1)
	for c := range foodCategories {
		out = append(out, c)
	}
	out = append(out, CategoryShops)
	return out
}

// FoodApplication is the submission form for restaurants, cafes, bakeries
// and other food businesses.
type FoodApplication struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	BusinessName string `json:"business_name"`
	Category     string `json:"category"`
	Address      string `json:"address"`
	Website      string `json:"website"`
	Description  string `json:"description"`
	OpeningHours string `json:"opening_hours"`
}

// Submission validates the form and builds the pending application.
func (a FoodApplication) Submission() (*modmodels.Application, error) {
	if err := validateCommon(a.Name, a.Email, a.BusinessName); err != nil {
		return nil, err
	}
	if _, ok := foodCategories[a.Category]; !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown food category")
	}
	return &modmodels.Application{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(a.Name),
		Email:        normalizeEmail(a.Email),
		Phone:        strings.TrimSpace(a.Phone),
		BusinessName: strings.TrimSpace(a.BusinessName),
		Category:     a.Category,
		Address:      strings.TrimSpace(a.Address),
		Website:      strings.TrimSpace(a.Website),
		Description:  strings.TrimSpace(a.Description),
		Variant:      modmodels.VariantFood,
		OpeningHours: strings.TrimSpace(a.OpeningHours),
		Status:       modmodels.StatusPending,
		SubmittedAt:  time.Now().UTC(),
	}, nil
}

// ShopApplication is the submission form for retail businesses.
type ShopApplication struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	BusinessName string `json:"business_name"`
	Address      string `json:"address"`
	Website      string `json:"website"`
	Description  string `json:"description"`
	ProductTypes string `json:"product_types"`
}

// Submission validates the form and builds the pending application.
func (a ShopApplication) Submission() (*modmodels.Application, error) {
	if err := validateCommon(a.Name, a.Email, a.BusinessName); err != nil {
		return nil, err
	}
	return &modmodels.Application{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(a.Name),
		Email:        normalizeEmail(a.Email),
		Phone:        strings.TrimSpace(a.Phone),
		BusinessName: strings.TrimSpace(a.BusinessName),
		Category:     CategoryShops,
		Address:      strings.TrimSpace(a.Address),
		Website:      strings.TrimSpace(a.Website),
		Description:  strings.TrimSpace(a.Description),
		Variant:      modmodels.VariantShop,
		ProductTypes: strings.TrimSpace(a.ProductTypes),
		Status:       modmodels.StatusPending,
		SubmittedAt:  time.Now().UTC(),
	}, nil
}

func validateCommon(name, email, businessName string) error {
	if strings.TrimSpace(name) == "" {
		return dErrors.New(dErrors.CodeValidation, "contact name is required")
	}
	if strings.TrimSpace(businessName) == "" {
		return dErrors.New(dErrors.CodeValidation, "business name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
