package catalog

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	msgRequired     = "This field is required."
	msgBlank        = "This field cannot be blank."
	msgMinPrice     = "Ensure this value is greater than or equal to 0.01."
	msgMinPrepTime  = "Ensure this value is greater than or equal to 0."
	msgMaxDigits    = "Ensure that there are no more than 6 digits in total."
	msgMaxDecimals  = "Ensure that there are no more than 2 decimal places."
	msgMaxWhole     = "Ensure that there are no more than 4 digits before the decimal point."
	msgMenuNameUsed = "Menu with this name already exists."

	priceMaxDigits   = 6
	priceMaxDecimals = 2
)

var minPrice = decimal.RequireFromString("0.01")

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{validate: validate}
}

// Menu checks a menu write; partial skips the required check for absent fields.
func (v *Validator) Menu(input MenuInput, partial bool) *ValidationError {
	verr := NewValidationError()
	if !partial {
		requireField(verr, "name", input.Name == nil)
		requireField(verr, "description", input.Description == nil)
	}
	v.collect(verr, input)
	return verr
}

func (v *Validator) Dish(input DishInput, partial bool) *ValidationError {
	verr := NewValidationError()
	if !partial {
		requireField(verr, "name", input.Name == nil)
		requireField(verr, "description", input.Description == nil)
		requireField(verr, "price", input.Price == nil)
		requireField(verr, "prep_time", input.PrepTime == nil)
		requireField(verr, "is_vegetarian", input.IsVegetarian == nil)
	}
	v.collect(verr, input)
	if input.Price != nil {
		for _, msg := range PriceErrors(*input.Price) {
			verr.Add("price", msg)
		}
	}
	return verr
}

func requireField(verr *ValidationError, field string, missing bool) {
	if missing {
		verr.Add(field, msgRequired)
	}
}

func (v *Validator) collect(verr *ValidationError, input any) {
	err := v.validate.Struct(input)
	if err == nil {
		return
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Add("non_field_errors", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), describe(fe))
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return msgBlank
	case "max":
		value := fmt.Sprint(fe.Value())
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), utf8.RuneCountInString(value))
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

// PriceErrors applies the minimum value rule and the numeric(6,2) shape rules.
// Digits are counted from the literal, so trailing zeros count.
func PriceErrors(price decimal.Decimal) []string {
	var msgs []string
	if price.LessThan(minPrice) {
		msgs = append(msgs, msgMinPrice)
	}

	digits, decimals := countDigits(price)
	whole := digits - decimals
	switch {
	case digits > priceMaxDigits:
		msgs = append(msgs, msgMaxDigits)
	case decimals > priceMaxDecimals:
		msgs = append(msgs, msgMaxDecimals)
	case whole > priceMaxDigits-priceMaxDecimals:
		msgs = append(msgs, msgMaxWhole)
	}
	return msgs
}

func countDigits(value decimal.Decimal) (int, int) {
	coefficient := new(big.Int).Abs(value.Coefficient()).String()
	exponent := int(value.Exponent())

	if exponent >= 0 {
		if coefficient == "0" {
			return 1, 0
		}
		return len(coefficient) + exponent, 0
	}

	decimals := -exponent
	if decimals > len(coefficient) {
		return decimals, decimals
	}
	return len(coefficient), decimals
}
