package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stemsi/quizling/internal/model"
)

var (
	// trans is the singleton English translator for validation errors.
	trans ut.Translator

	// engine validates decoded API payloads and WebSocket actions outside of
	// gin's request binding. It reads the same `binding` tags.
	engine *govalidator.Validate

	once sync.Once
)

// Setup registers the English translations and custom rules on Gin's binding
// engine. Call once during application startup. Struct works without it.
func Setup() {
	initEngine()
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		configure(v)
	}
}

func initEngine() {
	once.Do(func() {
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")

		engine = govalidator.New(govalidator.WithRequiredStructEnabled())
		engine.SetTagName("binding")
		configure(engine)
	})
}

func configure(v *govalidator.Validate) {
	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("option_labels", validateOptionLabels)
	_ = v.RegisterTranslation("option_labels", trans,
		func(ut ut.Translator) error {
			return ut.Add("option_labels", "{0} must be labeled exactly A, B, C and D", true)
		},
		func(ut ut.Translator, fe govalidator.FieldError) string {
			t, _ := ut.T("option_labels", fe.Field())
			return t
		},
	)

	en_translations.RegisterDefaultTranslations(v, trans)
}

// validateOptionLabels requires a []model.Option to carry each label once.
func validateOptionLabels(fl govalidator.FieldLevel) bool {
	opts, ok := fl.Field().Interface().([]model.Option)
	if !ok {
		return false
	}
	if len(opts) != len(model.Labels) {
		return false
	}
	seen := make(map[model.Label]bool, len(opts))
	for _, o := range opts {
		if !o.Label.Valid() || seen[o.Label] {
			return false
		}
		seen[o.Label] = true
	}
	return true
}

// Struct validates v against its `binding` tags.
func Struct(v interface{}) error {
	initEngine()
	return engine.Struct(v)
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	initEngine()
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Namespace()] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// BindURI binds and validates route parameters into dst.
// Returns nil on success or a translated field error map on failure.
func BindURI(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindUri(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindQuery binds and validates query parameters into dst.
// Returns nil on success or a translated field error map on failure.
func BindQuery(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindQuery(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
