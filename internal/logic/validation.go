package logic

import (
	"regexp"
	"strings"

	"github.com/blues/fundchain/internal/contract"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// 用户名长度
const (
	UsernameMinLen = 3
	UsernameMaxLen = 20
)

// ValidateUsername 本地校验用户名，不合法时返回校验错误
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return contract.Validation("Username is required")
	case len(username) < UsernameMinLen || len(username) > UsernameMaxLen:
		return contract.Validation("Username must be between 3 and 20 characters")
	case !usernamePattern.MatchString(username):
		return contract.Validation("Username can only contain lowercase letters, numbers, and underscores")
	}
	return nil
}

// ValidateEmail 本地校验邮箱
func ValidateEmail(email string) error {
	if email == "" {
		return contract.Validation("Email is required")
	}
	if !emailPattern.MatchString(email) {
		return contract.Validation("Please enter a valid email address")
	}
	return nil
}

// NormalizeUsername 用户名统一转小写
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// RegisterValidators 注册自定义校验标签 fc_username / fc_email / fc_category
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("fc_username", func(fl validator.FieldLevel) bool {
		return ValidateUsername(fl.Field().String()) == nil
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("fc_email", func(fl validator.FieldLevel) bool {
		return ValidateEmail(fl.Field().String()) == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("fc_category", func(fl validator.FieldLevel) bool {
		for _, c := range Categories {
			if fl.Field().String() == c {
				return true
			}
		}
		return false
	})
}
