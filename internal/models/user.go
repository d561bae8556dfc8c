// Package models содержит доменные структуры приложения: пользователей,
// рекомендации, платежи, купоны и настройки, а также DTO для JSON-запросов.
package models

import "time"

// Статусы подписки пользователя.
const (
	SubscriptionStatusInactive = "inactive"
	SubscriptionStatusActive   = "active"
)

// Роли, которые попадают в JWT.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DateLayout формат дат, в котором сравниваются сроки подписок и купонов.
const DateLayout = "2006-01-02"

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Name                string     `json:"name"`
	Phone               string     `json:"phone,omitempty"`
	IsAdmin             bool       `json:"is_admin"`
	SubscriptionStatus  string     `json:"subscription_status"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"`
	Capital             float64    `json:"capital"` // используется только для прогноза прибыли
	CreatedAt           time.Time  `json:"created_at"`
}

// Role возвращает роль пользователя для JWT.
func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// HasActiveSubscription сообщает, есть ли у пользователя действующая подписка на дату today.
// День окончания подписки включается в период.
func (u *User) HasActiveSubscription(today time.Time) bool {
	if u.SubscriptionStatus != SubscriptionStatusActive || u.SubscriptionEndDate == nil {
		return false
	}
	return u.SubscriptionEndDate.Format(DateLayout) >= today.Format(DateLayout)
}

// Identity данные пользователя из проверенного JWT.
type Identity struct {
	UserID int64
	Email  string
	Role   string
}

// IsAdmin сообщает, что токен выдан администратору.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// RegisterRequest данные формы регистрации.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Confirm  string `json:"confirm" validate:"required,eqfield=Password"`
	Name     string `json:"name" validate:"omitempty,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// LoginRequest данные для входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CapitalRequest обновление капитала пользователя.
type CapitalRequest struct {
	Capital *float64 `json:"capital" validate:"required,gte=0"`
}

// ExpiringInfo сведения о подписке, которая скоро закончится. Публикуется планировщиком.
type ExpiringInfo struct {
	UserID  int64     `json:"user_id"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	EndDate time.Time `json:"end_date"`
}

// Overview сводка для панели администратора.
type Overview struct {
	Users             []*User `json:"users"`
	ActiveSubscribers int     `json:"active_subscribers"`
}
