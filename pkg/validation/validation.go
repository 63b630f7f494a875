package validation

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/vinodismyname/fuelprice/pkg/pagination"
)

var (
	v         *validator.Validate
	once      sync.Once
	yearMonth = regexp.MustCompile(`^[0-9]{4}(0[1-9]|1[0-2])$`)
)

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		// Report tool input fields by their JSON names.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		// Custom: survey file path must be a CSV file
		_ = v.RegisterValidation("csvpath", func(fl validator.FieldLevel) bool {
			s := strings.ToLower(strings.TrimSpace(fl.Field().String()))
			return s != "" && strings.HasSuffix(s, ".csv")
		})
		// Custom: export target must be a workbook or sqlite file
		_ = v.RegisterValidation("exportpath", func(fl validator.FieldLevel) bool {
			s := strings.ToLower(strings.TrimSpace(fl.Field().String()))
			for _, ext := range []string{".xlsx", ".db", ".sqlite"} {
				if strings.HasSuffix(s, ext) && len(s) > len(ext) {
					return true
				}
			}
			return false
		})
		// Custom: YYYYMM bucket label
		_ = v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
			return yearMonth.MatchString(fl.Field().String())
		})
		// Custom: cursor must be decodable via pagination.DecodeCursor
		_ = v.RegisterValidation("cursor", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true // empty is allowed; use omitempty with this tag
			}
			if _, err := base64.RawURLEncoding.DecodeString(s); err != nil {
				return false
			}
			_, err := pagination.DecodeCursor(s)
			return err == nil
		})
	})
	return v
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for MCP tool errors. Returns empty string when valid.
func ValidateStruct(s any) string {
	err := Validator().Struct(s)
	if err == nil {
		return ""
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return "VALIDATION: invalid inputs"
	}
	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("VALIDATION: %s is required", field)
	case "required_without":
		return fmt.Sprintf("VALIDATION: %s is required (or supply cursor)", field)
	case "csvpath":
		return "VALIDATION: path must be a .csv survey file"
	case "exportpath":
		return "VALIDATION: output must end in .xlsx, .db or .sqlite"
	case "yearmonth":
		return "VALIDATION: year_month must be YYYYMM, e.g. 201907"
	case "cursor":
		return "CURSOR_INVALID: failed to decode cursor; restart pagination"
	case "oneof":
		return fmt.Sprintf("VALIDATION: %s must be one of [%s]", field, fe.Param())
	case "min", "max", "gte", "lte":
		return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("VALIDATION: invalid %s", field)
}
