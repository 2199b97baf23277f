package utils

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pawmart/pawmart-api/internal/utils/response"
)

// ParseAndValidate decodes the JSON body into dest and runs struct
// validation, writing the error response itself. Returns false when the
// handler should bail out.
func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {
	if err := DecodeJSONBody(r, dest); err != nil {
		slog.Warn("Invalid request", slog.String("error", err.Error()), slog.String("endpoint", r.URL.Path))
		response.BadRequest(w, err)

		return false
	}

	if err := ValidateStruct(validate, dest); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)
		} else {
			response.BadRequest(w, errors.New("invalid input data"))
		}

		return false
	}

	return true
}
