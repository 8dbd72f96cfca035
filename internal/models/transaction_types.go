package models

import "time"

// Transaction is the model for the 'transactions' table.
// One row per webhook payment event. perfectpay_code is UNIQUE so a
// replayed delivery cannot credit a user twice.
type Transaction struct {
	ID             int64     `json:"id" db:"id"`
	PerfectPayCode string    `json:"perfectpayCode" db:"perfectpay_code"`
	UserID         int64     `json:"userId" db:"user_id"`
	Amount         float64   `json:"amount" db:"amount"`
	Status         string    `json:"status" db:"status"` // approved | canceled | ignored
	PaymentMethod  string    `json:"paymentMethod" db:"payment_method"`
	Payload        string    `json:"-" db:"payload"` // raw webhook body, for audits
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
