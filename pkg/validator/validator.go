package validator

import (
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"portfolio-site/pkg/utils"
)

var (
	once      sync.Once
	validate  *validator.Validate
	sanitizer *bluemonday.Policy

	assetIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	urlPattern     = regexp.MustCompile(`^https?://[a-zA-Z0-9\-\.]+(:[0-9]+)?(/.*)?$`)
)

// Init prepares the shared validator and HTML sanitizer. It is safe to call
// more than once; package functions call it lazily.
func Init() {
	once.Do(func() {
		validate = validator.New()

		sanitizer = bluemonday.UGCPolicy()
		sanitizer.AllowAttrs("class", "id").Globally()
		sanitizer.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")

		registerCustomValidations(validate)

		if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerCustomValidations(engine)
		}
	})
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterValidation("route_path", validateRoutePath)
	v.RegisterValidation("site_path", validateSitePath)
	v.RegisterValidation("asset_id", validateAssetID)
	v.RegisterValidation("no_html", validateNoHTML)
}

// Validate checks struct tags on s.
func Validate(s interface{}) error {
	Init()
	return validate.Struct(s)
}

// SanitizeHTML strips unsafe markup from rendered content bodies.
func SanitizeHTML(html string) string {
	Init()
	return sanitizer.Sanitize(html)
}

// ValidateURL reports whether url is an absolute http(s) URL.
func ValidateURL(url string) bool {
	return urlPattern.MatchString(url)
}

// FieldErrors flattens validation errors into "Field: tag" pairs for logs
// and error messages.
func FieldErrors(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Field()+": "+fe.Tag())
	}
	return out
}

// validateRoutePath accepts only canonical paths, the form request paths
// are normalised to before matching: no trailing, duplicate or dot segments.
func validateRoutePath(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return isSitePath(value) && value == utils.NormalizePath(value)
}

// validateSitePath accepts any absolute site path; callers normalise it.
func validateSitePath(fl validator.FieldLevel) bool {
	return isSitePath(fl.Field().String())
}

func isSitePath(value string) bool {
	if !strings.HasPrefix(value, "/") {
		return false
	}
	return !strings.ContainsAny(value, " \t\r\n?#")
}

func validateAssetID(fl validator.FieldLevel) bool {
	return assetIDPattern.MatchString(fl.Field().String())
}

func validateNoHTML(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return !strings.Contains(value, "<") && !strings.Contains(value, ">")
}
