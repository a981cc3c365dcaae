package transport

import (
	"reflect"
	"sync"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidatorsOnce sync.Once

// RegisterValidators adds the stay date tags to gin's validator engine.
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("staydate", stayDate)
			_ = v.RegisterValidation("afterdate", afterDate)
		}
	})
}

var stayDate validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := entity.ParseStayDate(s)
	return err == nil
}

// afterDate requires the field to be strictly later than the sibling named by the param.
// Unparsable values pass here; staydate reports them.
var afterDate validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	if !field.IsValid() || field.Kind() != reflect.String {
		return false
	}

	from, err := entity.ParseStayDate(field.String())
	if err != nil {
		return true
	}
	to, err := entity.ParseStayDate(s)
	if err != nil {
		return true
	}
	return to.After(from)
}
