// Package services формирует PDF-счета по оплаченным подпискам.
package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// PaymentSource возвращает платёж с проверкой прав доступа.
type PaymentSource interface {
	GetPayment(ctx context.Context, paymentID, userID int64, isAdmin bool) (*models.Payment, error)
}

// UserSource возвращает владельца платежа.
type UserSource interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// CompanySource возвращает реквизиты компании.
type CompanySource interface {
	Company(ctx context.Context) (models.Company, error)
}

// LineItem строка счёта.
type LineItem struct {
	Description string
	Amount      string
}

// InvoiceService собирает данные для счёта и рендерит PDF.
type InvoiceService struct {
	payments PaymentSource
	users    UserSource
	company  CompanySource
	log      *slog.Logger
}

// NewInvoiceService создает новый экземпляр InvoiceService.
func NewInvoiceService(payments PaymentSource, users UserSource, company CompanySource, log *slog.Logger) *InvoiceService {
	return &InvoiceService{
		payments: payments,
		users:    users,
		company:  company,
		log:      log,
	}
}

// FormatAmount форматирует сумму в целых рупиях как "Rs. 999.00".
func FormatAmount(amount int64) string {
	return "Rs. " + decimal.NewFromInt(amount).StringFixed(2)
}

func planTitle(plan string) string {
	if plan == models.PlanQuarterly {
		return "Quarterly Subscription"
	}
	return "Monthly Subscription"
}

// Items возвращает строки счёта: тариф по исходной цене и скидку, если она была.
func Items(p *models.Payment) []LineItem {
	original := p.OriginalAmount
	if original == 0 {
		original = p.Amount
	}
	items := []LineItem{{Description: planTitle(p.PlanType), Amount: FormatAmount(original)}}
	if p.DiscountAmount > 0 {
		code := ""
		if p.CouponCode != nil {
			code = *p.CouponCode
		}
		items = append(items, LineItem{
			Description: fmt.Sprintf("Discount (%s)", code),
			Amount:      "-" + FormatAmount(p.DiscountAmount),
		})
	}
	return items
}

// Render рисует счёт и возвращает содержимое PDF.
func Render(p *models.Payment, customer *models.User, company models.Company) ([]byte, error) {
	const op = "invoice.Render"

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetTitle("Invoice "+p.InvoiceNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, company.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, company.Address, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Email: "+company.Email, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Phone: "+company.Phone, "", 1, "L", false, 0, "")
	if company.GSTNumber != "" {
		pdf.CellFormat(0, 5, "GSTIN: "+company.GSTNumber, "", 1, "L", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "TAX INVOICE", "", 1, "L", false, 0, "")

	name := "Customer"
	email := ""
	if customer != nil {
		if customer.Name != "" {
			name = customer.Name
		}
		email = customer.Email
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(80, 5, "Invoice: "+p.InvoiceNumber, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Bill To:", "", 1, "L", false, 0, "")
	pdf.CellFormat(80, 5, "Date: "+p.CreatedAt.Format(models.DateLayout), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, name, "", 1, "L", false, 0, "")
	pdf.CellFormat(80, 5, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, email, "", 1, "L", false, 0, "")

	pdf.Ln(12)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(110, 7, "Description", "B", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range Items(p) {
		pdf.CellFormat(110, 7, it.Description, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, it.Amount, "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(110, 9, "Total Paid", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, FormatAmount(p.Amount), "T", 1, "R", false, 0, "")

	pdf.SetY(-35)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 5, "Thank you for your subscription!", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Computer-generated invoice", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf.Bytes(), nil
}

// Generate рендерит счёт по платежу paymentID. Доступ есть у владельца платежа
// и у администратора, иначе возвращается models.ErrForbidden.
func (s *InvoiceService) Generate(ctx context.Context, paymentID, userID int64, isAdmin bool) ([]byte, *models.Payment, error) {
	const op = "services.InvoiceService.Generate"

	p, err := s.payments.GetPayment(ctx, paymentID, userID, isAdmin)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	customer, err := s.users.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	company, err := s.company.Company(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	doc, err := Render(p, customer, company)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("invoice rendered", slog.Int64("payment_id", p.ID), slog.String("invoice", p.InvoiceNumber))
	return doc, p, nil
}
