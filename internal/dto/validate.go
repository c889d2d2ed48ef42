package dto

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册自定义标签：
//
//	ymd   日期 YYYY-MM-DD
//	hhmm  时刻 HH:MM（24 小时制）
//
// 使用这些标签的 DTO 在绑定前必须先调用本函数，否则 validator 会 panic。
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("ymd", layoutValidator(dateLayout))
		_ = v.RegisterValidation("hhmm", layoutValidator(clockLayout))
	})
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true // 是否必填交给 required
		}
		_, err := time.Parse(layout, s)
		return err == nil
	}
}
