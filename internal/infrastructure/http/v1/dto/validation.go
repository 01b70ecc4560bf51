package dto

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	imeiPattern  = regexp.MustCompile(`^[A-Za-z0-9-]{1,32}$`)
	registerOnce sync.Once
)

// RegisterValidators installs the custom binding tags on gin's validator.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("imei", validateIMEI)
	})
}

// validateIMEI accepts 1-32 letters, digits or dashes. Empty values pass so
// the tag composes with omitempty and required.
func validateIMEI(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return imeiPattern.MatchString(s)
}
