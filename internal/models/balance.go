package models

import "github.com/shopspring/decimal"

// Balance is the folded view of a user's statement history
type Balance struct {
	Statements []Statement     `json:"statement"`
	Balance    decimal.Decimal `json:"balance"`
}
