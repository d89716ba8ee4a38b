package httputil

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/i18n"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field errors under their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// describedTags have a catalog entry under "validation.<tag>".
var describedTags = map[string]bool{
	"required": true, "min": true, "max": true, "oneof": true, "base64": true,
	"startswith": true, "len": true, "numeric": true,
}

// Validate checks v's validate tags. Failures become a validation AppError
// whose details are keyed by JSON field name and worded in the request locale.
func Validate(ctx context.Context, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.BadRequest(err.Error())
	}

	localizer := i18n.LocalizerFromContext(ctx)
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := "validation.invalid"
		if describedTags[fe.Tag()] {
			key = "validation." + fe.Tag()
		}
		details[fe.Field()] = localizer.T(key, map[string]string{"param": fe.Param()})
	}
	return errors.Validation(details)
}
