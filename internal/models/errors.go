package models

import "errors"

var (
	// ErrNotFound запись не найдена в хранилище
	ErrNotFound = errors.New("not found")
	// ErrInvalidEntryPrice цена входа должна быть больше нуля
	ErrInvalidEntryPrice = errors.New("entry price must be greater than zero")
	// ErrEmailTaken пользователь с таким email уже существует
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials неверный email или пароль
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSetting значение настройки не удалось разобрать
	ErrInvalidSetting = errors.New("invalid setting value")
	// ErrForbidden у пользователя нет доступа к ресурсу
	ErrForbidden = errors.New("forbidden")
	// ErrCouponExists купон с таким кодом уже существует
	ErrCouponExists = errors.New("coupon already exists")
	// ErrInvalidCoupon параметры купона вне допустимых значений
	ErrInvalidCoupon = errors.New("invalid coupon parameters")
	// ErrInvalidCapital капитал не может быть отрицательным
	ErrInvalidCapital = errors.New("capital must not be negative")
)
