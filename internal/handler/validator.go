package handler

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Trans 全局翻译器
var Trans ut.Translator

// moodPattern 情绪词只允许字母、空格和连字符，例如 "sad"、"burned out"
var moodPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z \-]*$`)

// InitTrans 初始化 validator 翻译器，并注册自定义校验规则
// locale 为 "zh" 或 "en"
func InitTrans(locale string) (err error) {
	// Gin v1.9+ 中 binding.Validator 可能为 nil
	if binding.Validator == nil {
		validate := validator.New()
		validate.SetTagName("binding")
		binding.Validator = &defaultValidator{validator: validate}
	}

	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	// 报错信息使用 json tag 名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err = v.RegisterValidation("mood", validateMood); err != nil {
		return err
	}

	enT := en.New()
	uni := ut.New(enT, zh.New(), enT)
	Trans, ok = uni.GetTranslator(locale)
	if !ok {
		return fmt.Errorf("uni.GetTranslator(%s) failed", locale)
	}

	switch locale {
	case "zh":
		err = zh_translations.RegisterDefaultTranslations(v, Trans)
	default:
		err = en_translations.RegisterDefaultTranslations(v, Trans)
	}
	if err != nil {
		return err
	}
	return registerMoodTranslation(v, locale)
}

func validateMood(fl validator.FieldLevel) bool {
	return moodPattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

func registerMoodTranslation(v *validator.Validate, locale string) error {
	text := "{0} must contain letters only"
	if locale == "zh" {
		text = "{0}只能包含字母"
	}
	return v.RegisterTranslation("mood", Trans,
		func(ut ut.Translator) error {
			return ut.Add("mood", text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("mood", fe.Field())
			return t
		},
	)
}

// RemoveTopStruct 去掉 "CreateGroupRequest.name" 中的结构体前缀
func RemoveTopStruct(fields map[string]string) map[string]string {
	res := make(map[string]string)
	for field, err := range fields {
		res[field[strings.Index(field, ".")+1:]] = err
	}
	return res
}

// defaultValidator 实现 binding.StructValidator
type defaultValidator struct {
	validator *validator.Validate
}

func (v *defaultValidator) ValidateStruct(obj interface{}) error {
	return v.validator.Struct(obj)
}

func (v *defaultValidator) Engine() interface{} {
	return v.validator
}
