package model

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedCustomerAccount возвращается, если сохранённые данные аккаунта клиента не разбираются.
var ErrMalformedCustomerAccount = errors.New("malformed customer account")

// Normalize приводит прочитанный из хранилища заказ к каноническому виду:
// даты обрезаются до календарных, отсутствующая дата окончания вычисляется
// из даты начала и срока. Повторный вызов ничего не меняет.
func (o *Order) Normalize() {
	if !o.StartDate.IsZero() {
		o.StartDate = DateOf(o.StartDate)
	}

	if o.EndDate.IsZero() {
		if !o.StartDate.IsZero() && o.DurationMonths > 0 {
			o.EndDate = CalcEndDate(o.StartDate, o.DurationMonths)
		}
	} else {
		o.EndDate = DateOf(o.EndDate)
	}

	if o.CustomerAccount.IsZero() {
		o.CustomerAccount = nil
	}
}

// DecodeCustomerAccount разбирает данные аккаунта клиента, сохранённые как JSON-объект
// либо как JSON-строка, внутри которой лежит объект. Пустое значение и null дают nil.
func DecodeCustomerAccount(raw []byte) (*CustomerAccount, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedCustomerAccount)
	}

	v := gjson.ParseBytes(raw)
	if v.Type == gjson.String {
		inner := strings.TrimSpace(v.Str)
		if inner == "" {
			return nil, nil
		}
		if !gjson.Valid(inner) {
			return nil, fmt.Errorf("%w: invalid json text", ErrMalformedCustomerAccount)
		}
		v = gjson.Parse(inner)
	}

	if v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsObject() {
		return nil, fmt.Errorf("%w: expected object", ErrMalformedCustomerAccount)
	}

	ca := &CustomerAccount{
		Account:   v.Get("account").String(),
		Password:  v.Get("password").String(),
		OTPSecret: v.Get("otp_secret").String(),
	}
	if ca.IsZero() {
		return nil, nil
	}
	return ca, nil
}
