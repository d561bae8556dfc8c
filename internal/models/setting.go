package models

// Ключи настроек.
const (
	SettingMonthlyPrice      = "monthly_price"
	SettingQuarterlyPrice    = "quarterly_price"
	SettingAppName           = "app_name"
	SettingCompanyName       = "company_name"
	SettingCompanyAddress    = "company_address"
	SettingCompanyPhone      = "company_phone"
	SettingCompanyEmail      = "company_email"
	SettingGSTNumber         = "gst_number"
	SettingRazorpayKeyID     = "razorpay_key_id"
	SettingRazorpayKeySecret = "razorpay_key_secret"
)

// DefaultSettings значения, которые записываются при первом запуске
// и возвращаются, если ключ отсутствует в хранилище.
var DefaultSettings = map[string]string{
	SettingMonthlyPrice:      "999",
	SettingQuarterlyPrice:    "2999",
	SettingAppName:           "TradingPro",
	SettingCompanyName:       "TradingPro Services",
	SettingCompanyAddress:    "India",
	SettingCompanyPhone:      "+91 98765 43210",
	SettingCompanyEmail:      "contact@tradingpro.com",
	SettingGSTNumber:         "",
	SettingRazorpayKeyID:     "",
	SettingRazorpayKeySecret: "",
}

// Company реквизиты компании для счёта.
type Company struct {
	Name      string
	Address   string
	Phone     string
	Email     string
	GSTNumber string
}

// SettingsRequest форма настроек администратора. Пустые поля не меняются.
type SettingsRequest struct {
	AppName           *string `json:"app_name" validate:"omitempty,max=100"`
	CompanyName       *string `json:"company_name" validate:"omitempty,max=200"`
	CompanyAddress    *string `json:"company_address" validate:"omitempty,max=300"`
	CompanyPhone      *string `json:"company_phone" validate:"omitempty,max=30"`
	CompanyEmail      *string `json:"company_email" validate:"omitempty,email"`
	GSTNumber         *string `json:"gst_number" validate:"omitempty,max=30"`
	MonthlyPrice      *string `json:"monthly_price" validate:"omitempty,numeric"`
	QuarterlyPrice    *string `json:"quarterly_price" validate:"omitempty,numeric"`
	RazorpayKeyID     *string `json:"razorpay_key_id" validate:"omitempty,max=100"`
	RazorpayKeySecret *string `json:"razorpay_key_secret" validate:"omitempty,max=100"`
}

// Values возвращает только заполненные поля формы в виде key -> value.
func (r SettingsRequest) Values() map[string]string {
	res := make(map[string]string)
	add := func(key string, v *string) {
		if v != nil {
			res[key] = *v
		}
	}
	add(SettingAppName, r.AppName)
	add(SettingCompanyName, r.CompanyName)
	add(SettingCompanyAddress, r.CompanyAddress)
	add(SettingCompanyPhone, r.CompanyPhone)
	add(SettingCompanyEmail, r.CompanyEmail)
	add(SettingGSTNumber, r.GSTNumber)
	add(SettingMonthlyPrice, r.MonthlyPrice)
	add(SettingQuarterlyPrice, r.QuarterlyPrice)
	add(SettingRazorpayKeyID, r.RazorpayKeyID)
	add(SettingRazorpayKeySecret, r.RazorpayKeySecret)
	return res
}
