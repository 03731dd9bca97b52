package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrBinding marks a body that does not decode into the target type.
	ErrBinding = errors.New("binding failed")

	// ErrValidation marks a decoded body that breaks a validate tag.
	ErrValidation = errors.New("validation failed")

	errTrailingData = errors.New("unexpected data after JSON value")
)

// bodyValidator reports fields by their JSON names.
var bodyValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
})

// BindAndValidate decodes the JSON body into dst and checks its validate
// tags. The body must hold exactly one JSON value. Errors wrap ErrBinding
// or ErrValidation.
func BindAndValidate(c *gin.Context, dst any) error {
	body, err := c.GetRawData()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	if err := binding.JSON.BindBody(body, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	if !json.Valid(body) {
		return fmt.Errorf("%w: %w", ErrBinding, errTrailingData)
	}

	return Validate(dst)
}

// Validate checks the validate tags of v.
func Validate(v any) error {
	if err := bodyValidator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// IsInputError reports whether err is the caller's fault.
func IsInputError(err error) bool {
	return errors.Is(err, ErrBinding) || errors.Is(err, ErrValidation)
}

// InvalidFields maps each failing JSON field to the rule it broke, e.g.
// "quote" -> "required". It is for logs only.
func InvalidFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}

	return out
}
