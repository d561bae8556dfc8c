package models

import "time"

// Coupon скидочный купон. При MaxUses == 0 число применений не ограничено,
// иначе CurrentUses никогда не превышает MaxUses.
type Coupon struct {
	ID              int64      `json:"id"`
	Code            string     `json:"code"`
	DiscountPercent int        `json:"discount_percent"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	MaxUses         int        `json:"max_uses"`
	CurrentUses     int        `json:"current_uses"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Redeemable проверяет, можно ли применить купон на дату today.
// Срок действия включает сам день valid_until.
func (c *Coupon) Redeemable(today time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ValidUntil != nil && c.ValidUntil.Format(DateLayout) < today.Format(DateLayout) {
		return false
	}
	if c.MaxUses != 0 && c.CurrentUses >= c.MaxUses {
		return false
	}
	return true
}

// DummyCoupon данные формы создания купона.
type DummyCoupon struct {
	Code            string `json:"code" validate:"required,alphanum,max=32"`
	DiscountPercent int    `json:"discount_percent" validate:"gte=0,lte=100"`
	ValidUntil      string `json:"valid_until" validate:"omitempty"`
	MaxUses         int    `json:"max_uses" validate:"gte=0"`
}
