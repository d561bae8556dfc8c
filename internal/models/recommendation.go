package models

import "time"

// Направление сделки.
const (
	DirectionBuy  = "BUY"
	DirectionSell = "SELL"
)

// Статусы рекомендации. Переход возможен только active -> closed.
const (
	RecommendationActive = "active"
	RecommendationClosed = "closed"
)

// Recommendation торговая рекомендация, опубликованная администратором.
//
// ProfitLossPercent заполнен тогда и только тогда, когда статус closed и ExitPrice > 0.
// nil означает «результат неизвестен», а не нулевую доходность.
type Recommendation struct {
	ID                int64     `json:"id"`
	StockName         string    `json:"stock_name"`
	StockSymbol       string    `json:"stock_symbol"`
	Direction         string    `json:"recommendation_type"`
	EntryPrice        float64   `json:"entry_price"`
	TargetPrice       *float64  `json:"target_price,omitempty"`
	StopLoss          *float64  `json:"stop_loss,omitempty"`
	Status            string    `json:"status"`
	ExitPrice         *float64  `json:"exit_price,omitempty"`
	ProfitLossPercent *float64  `json:"profit_loss_percent,omitempty"`
	Notes             string    `json:"notes"`
	ChartImage        *string   `json:"chart_image,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DummyRecommendation данные формы создания рекомендации.
type DummyRecommendation struct {
	StockName   string   `json:"stock_name" validate:"required,max=100"`
	StockSymbol string   `json:"stock_symbol" validate:"required,max=20"`
	Direction   string   `json:"recommendation_type" validate:"required,oneof=BUY SELL"`
	EntryPrice  float64  `json:"entry_price" validate:"required,gt=0"`
	TargetPrice *float64 `json:"target_price" validate:"omitempty,gt=0"`
	StopLoss    *float64 `json:"stop_loss" validate:"omitempty,gt=0"`
	Notes       string   `json:"notes"`
}

// RecommendationUpdate данные формы обновления (закрытия) рекомендации.
type RecommendationUpdate struct {
	Status    string  `json:"status" validate:"required,oneof=active closed"`
	ExitPrice float64 `json:"exit_price" validate:"gte=0"`
	Notes     string  `json:"notes"`
}

// Stats агрегированная статистика по закрытым сделкам.
type Stats struct {
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	WinRate        float64 `json:"win_rate"`
	WinRatePercent float64 `json:"win_rate_percent"`
	AvgReturn      float64 `json:"avg_return"`
}

// Analytics месячная аналитика пользователя с прогнозом прибыли.
type Analytics struct {
	Month              string            `json:"month"`
	Capital            float64           `json:"capital"`
	PerStockAllocation float64           `json:"per_stock_allocation"`
	MonthlyProfit      float64           `json:"monthly_profit"`
	Stats              Stats             `json:"stats"`
	Trades             []*Recommendation `json:"trades"`
}
