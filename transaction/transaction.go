package transaction

import "context"

// Transaction is one expense record.
type Transaction struct {
	ID       int64   `json:"id"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
}

// Store persists transactions.
type Store interface {
	Create(ctx context.Context, t *Transaction) error
	List(ctx context.Context, offset, limit int) ([]Transaction, error)
}

const defaultListLimit = 100

func clampLimit(limit int) int {
	if limit <= 0 || limit > defaultListLimit {
		return defaultListLimit
	}
	return limit
}
