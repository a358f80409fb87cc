package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondInvalid answers 400 for a body that failed binding or validation.
// Validator errors are reported per field, anything else as a plain string.
func RespondInvalid(c *gin.Context, message string, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		RespondJSON(c, "error", http.StatusBadRequest, message, nil, err.Error())
		return
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	RespondJSON(c, "error", http.StatusBadRequest, message, nil, fields)
}

// RespondSVG writes a rendered seat map. Seat maps change with every
// gesture so they are never cached.
func RespondSVG(c *gin.Context, body []byte) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", body)
}
