// Package validation はgo-playground/validatorによるリクエストボディの検証を提供する。
// バリデータはシングルトンで保持し、構造体情報のキャッシュを共有する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/guardify/internal/model"
)

// reservedKeyChars はレコードのキーに使用できない文字。
const reservedKeyChars = ".$#[]/"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator はシングルトンのバリデータを返す。
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// エラーのフィールド名にはJSONのキー名を使う
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("recordkey", validateRecordKey)
		validate.RegisterStructValidation(validateLoginRequest, model.LoginRequest{})
	})

	return validate
}

// ValidateStruct は構造体を検証する。
// 検証に失敗した場合は *model.ValidationError を返す。
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &model.ValidationError{Fields: []string{err.Error()}}
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, translateError(fe))
	}
	return &model.ValidationError{Fields: fields}
}

// IsRecordKey はレコードストアのキーとして使用できる文字列かを判定する。
func IsRecordKey(s string) bool {
	return s != "" && !strings.ContainsAny(s, reservedKeyChars)
}

func validateRecordKey(fl validator.FieldLevel) bool {
	return IsRecordKey(fl.Field().String())
}

// validateLoginRequest は新規登録時のみ user.uid を検証する。
// uid は users/{uid} のパスになるため、空文字や区切り文字を許可しない。
func validateLoginRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(model.LoginRequest)
	if !req.IsNewUser {
		return
	}

	uid := req.User.UID
	switch {
	case uid == "":
		sl.ReportError(uid, "uid", "UID", "required", "")
	case !IsRecordKey(uid):
		sl.ReportError(uid, "uid", "UID", "recordkey", "")
	}
}

var errorMessageTemplates = map[string]string{
	"required":  "%s is required",
	"recordkey": "%s must not be empty or contain any of " + reservedKeyChars,
}

func translateError(fe validator.FieldError) string {
	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, fe.Field())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
