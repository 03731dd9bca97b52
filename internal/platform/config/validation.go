package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var configValidator = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}()

var ruleText = map[string]string{
	"required":        "is required",
	"required_if":     "is required when %s",
	"required_unless": "is required unless %s",
	"min":             "must be at least %s",
	"max":             "must be at most %s",
	"oneof":           "must be one of: %s",
	"url":             "must be a valid URL",
}

// Validate checks c and lists every offending key, one per line. The
// service refuses to start on error.
func (c *Config) Validate() error {
	c.Generator.Environment = c.App.Environment

	err := configValidator.Struct(c)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	lines := make([]string, len(verrs))
	for i, fe := range verrs {
		lines[i] = keyPath(fe.Namespace()) + " " + describeRule(fe)
	}

	return fmt.Errorf("invalid configuration:\n  %s", strings.Join(lines, "\n  "))
}

// keyPath drops the root type from "Config.generator.api_key".
func keyPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}

	return namespace
}

func describeRule(fe validator.FieldError) string {
	text, ok := ruleText[fe.Tag()]
	if !ok {
		return "fails " + fe.Tag()
	}

	if strings.Contains(text, "%s") {
		return fmt.Sprintf(text, fe.Param())
	}

	return text
}
