package userdelivery

import (
	"github.com/go-playground/validator/v10"
)

// ValidPhone validates an Indian mobile number: 10 digits, first digit 6-9.
var ValidPhone validator.Func = func(fl validator.FieldLevel) bool {
	phone, ok := fl.Field().Interface().(string)
	if !ok || len(phone) != 10 {
		return false
	}

	if phone[0] < '6' || phone[0] > '9' {
		return false
	}

	for i := 1; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return false
		}
	}

	return true
}
