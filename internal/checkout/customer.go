package checkout

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomerDetails are the buyer contact and shipping fields.
type CustomerDetails struct {
	FirstName  string `json:"firstName" validate:"notblank"`
	LastName   string `json:"lastName" validate:"notblank"`
	Email      string `json:"email" validate:"notblank,shopemail"`
	Phone      string `json:"phone" validate:"notblank,shopphone"`
	Address    string `json:"address" validate:"notblank"`
	City       string `json:"city" validate:"notblank"`
	PostalCode string `json:"postalCode" validate:"notblank"`
	Reference  string `json:"reference,omitempty"`
}

// CustomerPatch carries the fields a visitor edited. Nil fields are untouched.
type CustomerPatch struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	PostalCode *string `json:"postalCode"`
	Reference  *string `json:"reference"`
}

// FieldErrors maps a json field name to its message.
type FieldErrors map[string]string

const minPhoneDigits = 9

var (
	emailPattern = regexp.MustCompile(`(?i)^[\w.-]+@([\w-]+\.)+[\w-]{2,}$`)
	nonDigits    = regexp.MustCompile(`\D`)

	customerValidator = newCustomerValidator()
)

var fieldMessages = map[string]map[string]string{
	"firstName":  {"notblank": "Ingresa tu nombre."},
	"lastName":   {"notblank": "Ingresa tu apellido."},
	"email":      {"notblank": "Ingresa tu correo electrónico.", "shopemail": "Ingresa un correo válido."},
	"phone":      {"notblank": "Ingresa tu teléfono.", "shopphone": "Ingresa un teléfono válido."},
	"address":    {"notblank": "Ingresa tu dirección."},
	"city":       {"notblank": "Ingresa tu ciudad."},
	"postalCode": {"notblank": "Ingresa tu código postal."},
}

func newCustomerValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("shopemail", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("shopphone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// ValidEmail applies the storefront email pattern.
func ValidEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// ValidPhone requires at least nine digits once separators are stripped.
func ValidPhone(value string) bool {
	return len(nonDigits.ReplaceAllString(value, "")) >= minPhoneDigits
}

// ValidateCustomer returns one message per invalid field, or nil.
func ValidateCustomer(c CustomerDetails) FieldErrors {
	err := customerValidator.Struct(c)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{"_": err.Error()}
	}
	out := FieldErrors{}
	for _, fe := range errs {
		msg := fieldMessages[fe.Field()][fe.Tag()]
		if msg == "" {
			msg = "Revisa este campo."
		}
		out[fe.Field()] = msg
	}
	return out
}

// Apply copies the set fields of p onto c and returns the names it touched.
func (p CustomerPatch) Apply(c *CustomerDetails) []string {
	var touched []string
	set := func(name string, src *string, dst *string) {
		if src == nil {
			return
		}
		*dst = *src
		touched = append(touched, name)
	}
	set("firstName", p.FirstName, &c.FirstName)
	set("lastName", p.LastName, &c.LastName)
	set("email", p.Email, &c.Email)
	set("phone", p.Phone, &c.Phone)
	set("address", p.Address, &c.Address)
	set("city", p.City, &c.City)
	set("postalCode", p.PostalCode, &c.PostalCode)
	set("reference", p.Reference, &c.Reference)
	return touched
}

// Trimmed returns a copy with surrounding whitespace removed.
func (c CustomerDetails) Trimmed() CustomerDetails {
	return CustomerDetails{
		FirstName:  strings.TrimSpace(c.FirstName),
		LastName:   strings.TrimSpace(c.LastName),
		Email:      strings.TrimSpace(c.Email),
		Phone:      strings.TrimSpace(c.Phone),
		Address:    strings.TrimSpace(c.Address),
		City:       strings.TrimSpace(c.City),
		PostalCode: strings.TrimSpace(c.PostalCode),
		Reference:  strings.TrimSpace(c.Reference),
	}
}
