package handlers

import (
	"github.com/go-playground/validator/v10"

	"bookwise-backend/internal/httpx"
)

func validationDetails(errs validator.ValidationErrors) map[string]string {
	return httpx.ValidationDetails(errs)
}
