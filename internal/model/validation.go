package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "go-gin-happenings/pkg/app_errors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 錯誤欄位使用 json 名稱
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate 驗證建立請求；失敗時回傳 *apperrors.ValidationError
func (r *CreateHappeningRequest) Validate() error {
	return toValidationError(validate.Struct(r))
}

// Validate 驗證要寫入的場次（重複產生的子場次也會逐一驗證）
func (h *Happening) Validate() error {
	return toValidationError(validate.Struct(h))
}

func (p UpdateHappeningParams) Validate() error {
	return toValidationError(validate.Struct(p))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := apperrors.NewValidationError()
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), message(fe))
	}
	return ve
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	default:
		return "is invalid"
	}
}
