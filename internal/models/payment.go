package models

import "time"

// Тарифы подписки.
const (
	PlanMonthly   = "monthly"
	PlanQuarterly = "quarterly"
)

// PaymentStatusSuccess единственный статус платежа в демо-режиме.
const PaymentStatusSuccess = "success"

// Plan тариф подписки: длительность и ключ настройки с ценой.
type Plan struct {
	Name     string `json:"name"`
	Days     int    `json:"days"`
	PriceKey string `json:"-"`
	Price    int64  `json:"price"`
}

// Payment запись об оплате подписки. Создаётся один раз и больше не меняется.
// Суммы хранятся в целых единицах валюты.
type Payment struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Amount         int64     `json:"amount"`
	OriginalAmount int64     `json:"original_amount"`
	DiscountAmount int64     `json:"discount_amount"`
	PaymentRef     string    `json:"payment_id"`
	PlanType       string    `json:"plan_type"`
	CouponCode     *string   `json:"coupon_code,omitempty"`
	Status         string    `json:"status"`
	InvoiceNumber  string    `json:"invoice_number"`
	CreatedAt      time.Time `json:"created_at"`
}

// SubscribeRequest данные формы оформления подписки.
type SubscribeRequest struct {
	Plan   string `json:"plan" validate:"required,oneof=monthly quarterly"`
	Coupon string `json:"coupon" validate:"omitempty,max=64"`
}

// PaymentEvent сообщение об успешной оплате, уходит в очередь уведомлений.
type PaymentEvent struct {
	PaymentID     int64     `json:"payment_id"`
	UserID        int64     `json:"user_id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PlanType      string    `json:"plan_type"`
	Amount        int64     `json:"amount"`
	InvoiceNumber string    `json:"invoice_number"`
	EndDate       time.Time `json:"end_date"`
}
