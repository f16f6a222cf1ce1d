package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nobat/booking-api/internal/model"
)

// RegisterValidators installs custom validation rules on gin's binding
// engine. Field names in validation errors use the json tag so clients
// see the wire name, not the Go field.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("booking_source", validBookingSource); err != nil {
		panic(err)
	}
}

func validBookingSource(fl validator.FieldLevel) bool {
	switch model.BookingSource(fl.Field().String()) {
	case model.BookingSourceOnline, model.BookingSourcePhone,
		model.BookingSourceOnsite, model.BookingSourceSecretary:
		return true
	}
	return false
}
