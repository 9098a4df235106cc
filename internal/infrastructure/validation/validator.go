package validation

import (
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once

	// now is swapped in tests that pin the clock used by "future".
	now = time.Now

	aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)
	timeType     = reflect.TypeOf(time.Time{})
)

// rules maps each custom tag to its check. String rules receive the trimmed value.
var rules = map[string]validator.Func{
	"notblank": stringRule(func(s string) bool { return s != "" }),
	"http_url": stringRule(isHTTPURL),
	// alias accepts an empty string; pair it with required when the field is mandatory.
	"alias":  stringRule(func(s string) bool { return s == "" || aliasPattern.MatchString(s) }),
	"future": isFuture,
}

// Get returns the singleton validator instance
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)

		for tag, fn := range rules {
			if err := validate.RegisterValidation(tag, fn); err != nil {
				panic("validation: register " + tag + ": " + err.Error())
			}
		}
	})
	return validate
}

// Validate validates a struct and returns an error if invalid
func Validate(s any) error {
	return Get().Struct(s)
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

func stringRule(check func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		return check(strings.TrimSpace(fl.Field().String()))
	}
}

func isHTTPURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && strings.TrimSpace(u.Host) != ""
}

// isFuture passes nil pointers so optional expiries can be left out.
func isFuture(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	if field.Type() != timeType {
		return false
	}
	return field.Interface().(time.Time).After(now())
}
