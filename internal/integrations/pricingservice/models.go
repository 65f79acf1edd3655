package pricingservice

// QuoteRequest запрос расчёта стоимости тренировки
type QuoteRequest struct {
	ResourceClass   string `json:"resource_class"`
	ResourceID      int64  `json:"resource_id"`
	DurationMinutes int    `json:"duration_minutes"`
	Participants    int    `json:"participants"`
}

// Quote рассчитанная стоимость из PricingService
type Quote struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// ErrorResponse модель ошибки от PricingService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
