package fulfillment

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"activation_fulfiller/internal/apperr"
	"activation_fulfiller/internal/model"
)

type requestValidator struct {
	v     *validator.Validate
	trans ut.Translator
}

var (
	validatorOnce sync.Once
	reqValidator  *requestValidator
)

func getValidator() *requestValidator {
	validatorOnce.Do(func() {
		enLoc := en.New()
		trans, _ := ut.New(enLoc, enLoc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		// report json names so messages match the payload the caller sent
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		reqValidator = &requestValidator{v: v, trans: trans}
	})
	return reqValidator
}

// Validate is the only gate on malformed input. Line items and tracking are left to the platform.
func Validate(req model.FulfillmentRequest) error {
	rv := getValidator()
	err := rv.v.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(err.Error(), nil)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "FulfillmentRequest.")
		fields[key] = fe.Translate(rv.trans)
	}
	return apperr.Validation("missing required fields", fields)
}
