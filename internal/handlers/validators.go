package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jobcrew/auth_backend/internal/utils"
)

var registerValidatorsOnce sync.Once

// registerValidators adds the custom binding rules used by request DTOs.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return utils.IsAcceptablePassword(fl.Field().String())
		})
	})
}
