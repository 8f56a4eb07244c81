package http

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/bmteam/authgate/pkg/authsdk"
	"github.com/bmteam/authgate/pkg/httpx"
	"github.com/go-playground/validator/v10"
)

// validate is the shared request validator. Field names in errors use the
// JSON tag so clients see the names they sent.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// validateRequest runs struct validation and, on failure, writes a
// field-keyed 400 response. Returns false when the request was rejected.
func validateRequest(w http.ResponseWriter, req any) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}

	details := make(map[string]string)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			details[fe.Field()] = validationMessage(fe)
		}
	}

	httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ValidationErrorResponse{
		Error:            authsdk.ErrorCodeInvalidRequest,
		ErrorDescription: "request validation failed",
		Details:          details,
	})
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "invalid value"
	}
}
