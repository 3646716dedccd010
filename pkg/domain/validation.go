package domain

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors 以 JSON 字段名为 key 的校验错误
type FieldErrors map[string][]string

// First 按字段名排序后的第一条错误
func (fe FieldErrors) First() string {
	if len(fe) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(fe[k]) > 0 {
			return fe[k][0]
		}
	}
	return ""
}

// Add 追加一条字段错误
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

var validate = NewValidator()

// NewValidator 以 json tag 报告字段名的校验器
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterJSONTagNames(v)
	return v
}

// RegisterJSONTagNames 让 v 使用 json tag 作为字段名
func RegisterJSONTagNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

// ValidateStruct 用共享校验器校验 s
func ValidateStruct(s any) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	return FromValidator(err)
}

// FromValidator 把 validator 错误转为 FieldErrors；其他错误归到 "body"
func FromValidator(err error) FieldErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"body": {err.Error()}}
	}
	fe := FieldErrors{}
	for _, e := range verrs {
		fe.Add(e.Field(), message(e))
	}
	return fe
}

func message(e validator.FieldError) string {
	field := strings.ReplaceAll(e.Field(), "_", " ")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", field, e.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", field, e.Param())
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", strings.TrimSuffix(field, " confirmation"))
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
