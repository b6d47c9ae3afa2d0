package middleware

import (
	"reflect"
	"strings"

	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator configures gin's validator: errors carry JSON field names
// and the "plate" tag checks registration plates.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	_ = v.RegisterValidation("plate", validatePlate)
}

func validatePlate(fl validator.FieldLevel) bool {
	return stock.ValidPlate(fl.Field().String())
}
