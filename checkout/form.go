package checkout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kustore/storefront/order"
)

// Form is the checkout form as the customer submits it. The address is
// collected as separate fields and joined into one delivery address line
// on the order.
type Form struct {
	Name           string               `json:"name" validate:"required"`
	Phone          string               `json:"phone" validate:"required,phone"`
	Email          string               `json:"email" validate:"omitempty,email"`
	City           string               `json:"city" validate:"required"`
	PostalCode     string               `json:"postal_code" validate:"required,postal"`
	Street         string               `json:"street" validate:"required"`
	House          string               `json:"house" validate:"required"`
	Apartment      string               `json:"apartment"`
	DeliveryMethod order.DeliveryMethod `json:"delivery_method" validate:"required,oneof=boxberry russian_post cdek"`
}

var (
	// Digits with optional leading plus and common separators, at least
	// ten characters.
	phonePattern = regexp.MustCompile(`^[+]?[0-9\s\-()]{10,}$`)
	// Russian postal codes are exactly six digits.
	postalPattern = regexp.MustCompile(`^\d{6}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("postal", func(fl validator.FieldLevel) bool {
		return postalPattern.MatchString(fl.Field().String())
	})
	return v
}

var formValidator = newValidator()

// fieldMessages are the customer-facing messages, keyed by form field.
var fieldMessages = map[string]string{
	"Name":           "name is required",
	"Phone":          "enter a valid phone number",
	"Email":          "enter a valid email address",
	"City":           "city is required",
	"PostalCode":     "postal code must be 6 digits",
	"Street":         "street is required",
	"House":          "house number is required",
	"DeliveryMethod": "choose a delivery method",
}

// ValidationError carries per-field messages for the form UI.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	return "invalid checkout form: " + strings.Join(msgs, "; ")
}

// Validate checks the form and returns a *ValidationError listing every
// failed field, nil when the form is valid.
func (f *Form) Validate() error {
	err := formValidator.Struct(f)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("invalid value for %s", fe.Field())
		}
		fields[fe.Field()] = msg
	}
	return &ValidationError{Fields: fields}
}

// DeliveryAddress joins the address fields into the single line stored on
// the order: "city, postal, street, house" with an optional apartment.
func (f *Form) DeliveryAddress() string {
	addr := fmt.Sprintf("%s, %s, %s, д. %s",
		strings.TrimSpace(f.City),
		strings.TrimSpace(f.PostalCode),
		strings.TrimSpace(f.Street),
		strings.TrimSpace(f.House))
	if apt := strings.TrimSpace(f.Apartment); apt != "" {
		addr += fmt.Sprintf(", кв. %s", apt)
	}
	return addr
}
