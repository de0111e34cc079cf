package middleware

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	indianPhone = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincode     = regexp.MustCompile(`^\d{6}$`)

	registerOnce sync.Once
)

// RegisterValidators adds the custom binding tags used by the request models
// and reports fields by their JSON names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("in_phone", func(fl validator.FieldLevel) bool {
			return indianPhone.MatchString(strings.TrimSpace(fl.Field().String()))
		})
		_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
			return pincode.MatchString(strings.TrimSpace(fl.Field().String()))
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
}
